package model

import "fmt"

// AppError は利用者に表示するエラーを表す。
// 画面に表示するメッセージと原因カテゴリ、対処方法を含む。
type AppError struct {
	Code     string // エラーコード
	Message  string // 画面に表示するメッセージ
	Category string // カテゴリ: auth, validation, profile, avatar, system
	Action   string // ユーザー向け対処方法
	Err      error  // 原因となったエラー（ログ用）
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は原因エラーを返す。
func (e *AppError) Unwrap() error {
	return e.Err
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnknownProvider    = "UNKNOWN_PROVIDER"
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeWriteInProgress    = "WRITE_IN_PROGRESS"
	ErrCodeInvalidAvatar      = "INVALID_AVATAR"
	ErrCodeProfileLoad        = "PROFILE_LOAD_FAILED"
	ErrCodeProfileCreate      = "PROFILE_CREATE_FAILED"
	ErrCodeProfileSave        = "PROFILE_SAVE_FAILED"
	ErrCodeAvatarUpload       = "AVATAR_UPLOAD_FAILED"
	ErrCodeAvatarRemove       = "AVATAR_REMOVE_FAILED"
	ErrCodeSignUp             = "SIGN_UP_FAILED"
)

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "Corrija os campos destacados e tente novamente.",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *AppError {
	return &AppError{
		Code:     ErrCodeUnauthorized,
		Message:  "Usuário não encontrado. Faça login novamente.",
		Category: "auth",
		Action:   "Entre novamente com sua conta.",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
func NewInvalidCredentialsError(err error) *AppError {
	return &AppError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "E-mail ou senha inválidos.",
		Category: "auth",
		Action:   "Confira seus dados de acesso.",
		Err:      err,
	}
}

// NewUnknownProviderError は未対応の認証プロバイダー指定エラーを生成する。
func NewUnknownProviderError(provider string) *AppError {
	return &AppError{
		Code:     ErrCodeUnknownProvider,
		Message:  fmt.Sprintf("Provedor de login não suportado: %s", provider),
		Category: "auth",
		Action:   "Escolha uma das opções de login disponíveis.",
	}
}

// NewWriteInProgressError は同一ユーザーの書き込みが進行中であることを示すエラーを生成する。
func NewWriteInProgressError() *AppError {
	return &AppError{
		Code:     ErrCodeWriteInProgress,
		Message:  "Já existe uma alteração em andamento. Aguarde.",
		Category: "profile",
		Action:   "Aguarde a conclusão da operação anterior.",
	}
}

// NewInvalidAvatarError はアバター画像の検証エラーを生成する。
func NewInvalidAvatarError(message string) *AppError {
	return &AppError{
		Code:     ErrCodeInvalidAvatar,
		Message:  message,
		Category: "avatar",
		Action:   "Selecione uma imagem de até 5MB.",
	}
}

// NewProfileError はプロフィール操作の失敗を表すエラーを生成する。
// messageには画面にそのまま表示する文言を渡す。
func NewProfileError(code, message string, err error) *AppError {
	category := "profile"
	if code == ErrCodeAvatarUpload || code == ErrCodeAvatarRemove {
		category = "avatar"
	}
	return &AppError{
		Code:     code,
		Message:  message,
		Category: category,
		Action:   "Tente novamente em alguns instantes.",
		Err:      err,
	}
}

// NewSignUpError はサインアップ失敗エラーを生成する。
func NewSignUpError(message string, err error) *AppError {
	return &AppError{
		Code:     ErrCodeSignUp,
		Message:  message,
		Category: "auth",
		Action:   "Confira os dados informados e tente novamente.",
		Err:      err,
	}
}
