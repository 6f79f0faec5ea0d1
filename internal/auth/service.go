// Package auth は認証サービスとのログインフロー、ローカルセッション管理、
// 認証状態の変化の通知を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/bie/internal/backend"
	"github.com/hitoshi/bie/internal/model"
	"github.com/hitoshi/bie/internal/repository"
)

// ErrCodeExchange はOAuthの認可コードをセッションに交換できなかったことを示す。
var ErrCodeExchange = errors.New("oauth code exchange failed")

// Backend は認証サービスAPIのうちauthパッケージが使う操作。
type Backend interface {
	AuthorizeURL(provider, redirectTo, codeChallenge string) string
	ExchangeCode(ctx context.Context, authCode, codeVerifier string) (*backend.TokenResponse, error)
	SignInWithPassword(ctx context.Context, email, password string) (*backend.TokenResponse, error)
	SignUp(ctx context.Context, email, password string, meta model.UserMetadata) (*backend.TokenResponse, error)
	RefreshSession(ctx context.Context, refreshToken string) (*backend.TokenResponse, error)
	SignOut(ctx context.Context, accessToken string) error
}

// EventRecorder は認証イベントの計測を受け取るインターフェース。
type EventRecorder interface {
	RecordAuthEvent(event string)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int           // セッション有効期間（秒）
	RefreshLeeway time.Duration // 有効期限のこの時間前からリフレッシュする
	Providers     []string      // 許可するOAuthプロバイダー
	CallbackURL   string        // OAuth完了後のリダイレクト先
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	backend     Backend
	sessionRepo repository.SessionRepository
	tokens      *TokenParser
	notifier    *Notifier
	recorder    EventRecorder
	validate    *validator.Validate
	config      ServiceConfig
	now         func() time.Time
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(
	b Backend,
	sessionRepo repository.SessionRepository,
	tokens *TokenParser,
	notifier *Notifier,
	recorder EventRecorder,
	config ServiceConfig,
) *Service {
	if config.RefreshLeeway == 0 {
		config.RefreshLeeway = 30 * time.Second
	}
	return &Service{
		backend:     b,
		sessionRepo: sessionRepo,
		tokens:      tokens,
		notifier:    notifier,
		recorder:    recorder,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		config:      config,
		now:         time.Now,
	}
}

// Providers は許可されたOAuthプロバイダーを返す。
func (s *Service) Providers() []string {
	return slices.Clone(s.config.Providers)
}

// LoginURL はOAuthログインを開始するURLとPKCEのcode_verifierを返す。
// code_verifierはコールバックまで呼び出し側で保持する。
func (s *Service) LoginURL(provider string) (loginURL, verifier string, err error) {
	if !slices.Contains(s.config.Providers, provider) {
		return "", "", model.NewUnknownProviderError(provider)
	}

	verifier, err = newCodeVerifier()
	if err != nil {
		return "", "", err
	}
	return s.backend.AuthorizeURL(provider, s.config.CallbackURL, codeChallenge(verifier)), verifier, nil
}

// CompleteOAuth はコールバックの認可コードをトークンに交換し、セッションを発行する。
func (s *Service) CompleteOAuth(ctx context.Context, code, verifier string) (*model.Session, error) {
	if code == "" || verifier == "" {
		return nil, fmt.Errorf("%w: authorization code and verifier are required", ErrCodeExchange)
	}

	tr, err := s.backend.ExchangeCode(ctx, code, verifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCodeExchange, err)
	}

	session, err := s.createSession(ctx, tr)
	if err != nil {
		return nil, err
	}
	s.record("oauth_login")
	slog.Info("user logged in", slog.String("user_id", session.UserID), slog.String("method", "oauth"))
	return session, nil
}

// SignInInput はメールアドレスとパスワードによるログインの入力。
type SignInInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// SignIn はメールアドレスとパスワードでログインし、セッションを発行する。
func (s *Service) SignIn(ctx context.Context, in SignInInput) (*model.Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return nil, model.NewValidationError(validationMessage(err))
	}

	tr, err := s.backend.SignInWithPassword(ctx, in.Email, in.Password)
	if err != nil {
		if e, ok := backend.AsError(err); ok && e.Status < http.StatusInternalServerError {
			s.record("sign_in_failed")
			return nil, model.NewInvalidCredentialsError(err)
		}
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}

	session, err := s.createSession(ctx, tr)
	if err != nil {
		return nil, err
	}
	s.record("password_login")
	slog.Info("user logged in", slog.String("user_id", session.UserID), slog.String("method", "password"))
	return session, nil
}

// SignUpInput はサインアップの入力。
type SignUpInput struct {
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Company   string
	Email     string `validate:"required,email"`
	Password  string `validate:"required,min=6"`
}

// SignUpResult はサインアップの結果。
// メール確認が必要な場合はSessionがnilでConfirmationRequiredがtrueになる。
type SignUpResult struct {
	Session              *model.Session
	ConfirmationRequired bool
}

// SignUp はユーザーを登録する。氏名と会社名はユーザーメタデータとして保存する。
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Company = strings.TrimSpace(in.Company)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return nil, model.NewValidationError(validationMessage(err))
	}

	meta := model.UserMetadata{FirstName: in.FirstName, LastName: in.LastName, Company: in.Company}
	tr, err := s.backend.SignUp(ctx, in.Email, in.Password, meta)
	if err != nil {
		if e, ok := backend.AsError(err); ok && e.Status < http.StatusInternalServerError {
			return nil, model.NewSignUpError(signUpMessage(e), err)
		}
		return nil, fmt.Errorf("failed to sign up: %w", err)
	}

	s.record("sign_up")
	if tr.AccessToken == "" {
		slog.Info("user signed up, confirmation pending", slog.String("user_id", tr.User.ID))
		return &SignUpResult{ConfirmationRequired: true}, nil
	}

	session, err := s.createSession(ctx, tr)
	if err != nil {
		return nil, err
	}
	return &SignUpResult{Session: session}, nil
}

// CurrentSession はセッションIDからセッションを取得する。
// 存在しないか期限切れの場合は(nil, nil)を返す。
// アクセストークンが期限切れ間近の場合はリフレッシュし、ローテーション後のトークンを保存する。
// 認証サービスがリフレッシュを拒否した場合はローカルセッションを終了し、サインアウトを通知する。
func (s *Service) CurrentSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	if session.TokenExpired(s.now(), s.config.RefreshLeeway) {
		refreshed, err := s.refresh(ctx, session)
		if err != nil {
			return nil, err
		}
		if refreshed == nil {
			return nil, nil
		}
		session = refreshed
	}

	pt, err := s.tokens.Parse(session.AccessToken)
	if err != nil {
		if delErr := s.sessionRepo.DeleteByID(ctx, session.ID); delErr != nil {
			slog.Warn("failed to delete session with invalid token",
				slog.String("session_id", session.ID),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	session.User = pt.User
	return session, nil
}

// refresh はリフレッシュトークンでトークンを更新する。
// 認証サービスがリフレッシュを拒否した場合は(nil, nil)を返す。
func (s *Service) refresh(ctx context.Context, session *model.Session) (*model.Session, error) {
	tr, err := s.backend.RefreshSession(ctx, session.RefreshToken)
	if err != nil {
		if e, ok := backend.AsError(err); ok && e.Status < http.StatusInternalServerError {
			slog.Info("refresh token rejected, ending session",
				slog.String("user_id", session.UserID),
				slog.String("code", e.Code),
			)
			s.endLocalSessions(ctx, session.UserID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	session.AccessToken = tr.AccessToken
	session.RefreshToken = tr.RefreshToken
	session.TokenExpiresAt = s.tokenExpiry(tr)
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save refreshed session: %w", err)
	}
	s.record("token_refreshed")
	return session, nil
}

// Logout は認証サービス側で全セッションを無効化し、ローカルセッションを削除する。
// リモートの無効化に失敗した場合はローカルセッションを残してエラーを返す。
func (s *Service) Logout(ctx context.Context, session *model.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}

	if err := s.backend.SignOut(ctx, session.AccessToken); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}

	s.endLocalSessions(ctx, session.UserID)
	slog.Info("user logged out", slog.String("user_id", session.UserID))
	return nil
}

// Subscribe はuserIDの認証状態の変化を購読する。
func (s *Service) Subscribe(userID string) *Subscription {
	return s.notifier.Subscribe(userID)
}

// endLocalSessions はユーザーのローカルセッションを全削除し、サインアウトを通知する。
func (s *Service) endLocalSessions(ctx context.Context, userID string) {
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		slog.Warn("failed to delete local sessions",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	s.notifier.Publish(Event{Type: EventSignedOut, UserID: userID})
	s.record("signed_out")
}

// createSession はトークンレスポンスからセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, tr *backend.TokenResponse) (*model.Session, error) {
	pt, err := s.tokens.Parse(tr.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	expiresAt := s.tokenExpiry(tr)
	if expiresAt.IsZero() {
		expiresAt = pt.ExpiresAt
	}
	session := &model.Session{
		ID:             sessionID,
		UserID:         pt.User.ID,
		AccessToken:    tr.AccessToken,
		RefreshToken:   tr.RefreshToken,
		TokenExpiresAt: expiresAt,
		ExpiresAt:      now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt:      now,
		User:           pt.User,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// tokenExpiry はトークンレスポンスからアクセストークンの有効期限を求める。
func (s *Service) tokenExpiry(tr *backend.TokenResponse) time.Time {
	switch {
	case tr.ExpiresAt > 0:
		return time.Unix(tr.ExpiresAt, 0)
	case tr.ExpiresIn > 0:
		return s.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	default:
		return time.Time{}
	}
}

func (s *Service) record(event string) {
	if s.recorder != nil {
		s.recorder.RecordAuthEvent(event)
	}
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// validationMessage は最初の検証エラーを画面表示用の文言に変換する。
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Dados inválidos."
	}
	fe := verrs[0]
	switch fe.Field() {
	case "FirstName":
		return "O nome é obrigatório."
	case "LastName":
		return "O sobrenome é obrigatório."
	case "Email":
		return "Informe um e-mail válido."
	case "Password":
		if fe.Tag() == "min" {
			return "A senha deve ter pelo menos 6 caracteres."
		}
		return "Informe a senha."
	default:
		return "Dados inválidos."
	}
}

// signUpMessage は認証サービスのサインアップ拒否を画面表示用の文言に変換する。
func signUpMessage(e *backend.Error) string {
	switch {
	case e.Code == "user_already_exists" || e.MessageContains("already registered"):
		return "Este e-mail já está cadastrado."
	case e.Code == "weak_password":
		return "A senha informada é muito fraca."
	default:
		return "Não foi possível concluir o cadastro. Tente novamente."
	}
}
