package profile

import (
	"github.com/hitoshi/bie/internal/backend"
)

// 画面に表示する文言
const (
	MsgCreateFailed = "Erro ao criar perfil. Tente novamente."
	MsgLoadFailed   = "Erro ao carregar perfil. Tente recarregar a página."

	MsgFirstNameRequired = "O nome é obrigatório."
	MsgLastNameRequired  = "O sobrenome é obrigatório."
	MsgMarkupNotAllowed  = "Os campos não podem conter tags HTML."

	MsgSaved           = "✅ Perfil atualizado com sucesso!"
	MsgSaveUnexpected  = "Erro inesperado ao atualizar perfil. Tente novamente."
	MsgSaveRLS         = "❌ Erro de permissão: As políticas RLS da tabela \"profiles\" não estão configuradas corretamente. Consulte o arquivo SUPABASE_STORAGE_SETUP.md para configurar as políticas."
	MsgSaveNotFound    = "Perfil não encontrado. Recarregue a página e tente novamente."
	MsgSaveDuplicate   = "Erro: Dados duplicados. Verifique se o email não está sendo usado por outro usuário."
	MsgSavePermission  = "Erro de permissão. Verifique se as políticas RLS estão configuradas corretamente."
	saveFallbackPrefix = "Erro ao salvar: "

	MsgAvatarNotImage     = "Por favor, selecione apenas arquivos de imagem."
	MsgAvatarTooLarge     = "A imagem deve ter no máximo 5MB."
	MsgAvatarUpdated      = "Foto de perfil atualizada com sucesso!"
	MsgAvatarUnexpected   = "Erro inesperado ao atualizar foto de perfil."
	MsgUploadNoBucket     = "Erro: Bucket de avatars não configurado."
	MsgUploadPermission   = "Erro de permissão. Verifique as políticas RLS do storage."
	MsgUploadSize         = "Erro: Arquivo muito grande. Máximo permitido: 5MB."
	MsgUploadType         = "Erro: Tipo de arquivo não permitido. Use apenas imagens."
	uploadFallbackPrefix  = "Erro no upload: "
	MsgAvatarRemoved      = "Foto de perfil removida com sucesso!"
	MsgAvatarRemoveFailed = "Erro ao remover foto de perfil. Tente novamente."
)

// SaveErrorMessage はプロフィール保存の失敗を画面表示用の文言に変換する。
// バックエンド以外の失敗は予期しないエラーとして扱う。
func SaveErrorMessage(err error) string {
	e, ok := backend.AsError(err)
	if !ok {
		return MsgSaveUnexpected
	}

	switch {
	case e.Code == "42501" || e.MessageContains("row-level security"):
		return MsgSaveRLS
	case e.Code == backend.CodeNotFound:
		return MsgSaveNotFound
	case e.Code == "23505":
		return MsgSaveDuplicate
	case e.MessageContains("permission") || e.MessageContains("Unauthorized"):
		return MsgSavePermission
	default:
		return saveFallbackPrefix + e.Message
	}
}

// UploadErrorMessage はアバターのアップロード失敗を画面表示用の文言に変換する。
func UploadErrorMessage(err error) string {
	e, ok := backend.AsError(err)
	if !ok {
		return MsgAvatarUnexpected
	}

	switch {
	case e.MessageContains("bucket"):
		return MsgUploadNoBucket
	case e.MessageContains("permission"),
		e.MessageContains("policy"),
		e.MessageContains("row-level security"),
		e.MessageContains("Unauthorized"):
		return MsgUploadPermission
	case e.MessageContains("size"):
		return MsgUploadSize
	case e.MessageContains("type"):
		return MsgUploadType
	default:
		return uploadFallbackPrefix + e.Message
	}
}

// avatarSaveErrorMessage はアップロード後のavatar_url更新の失敗を文言に変換する。
func avatarSaveErrorMessage(err error) string {
	e, ok := backend.AsError(err)
	if !ok {
		return MsgAvatarUnexpected
	}
	return saveFallbackPrefix + e.Message
}
