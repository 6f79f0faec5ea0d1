package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bie/internal/flash"
	"github.com/hitoshi/bie/internal/middleware"
	"github.com/hitoshi/bie/internal/model"
	"github.com/hitoshi/bie/internal/profile"
	"github.com/hitoshi/bie/internal/web"
)

const (
	profilePath     = "/perfil"
	avatarPath      = "/avatar"
	avatarFieldName = "avatar"
	// avatarMemory はmultipartをメモリに保持する上限。超えた分は一時ファイルになる。
	avatarMemory = 8 << 20

	actionField  = "acao"
	actionCancel = "cancelar"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	Load(ctx context.Context, sess *model.Session) (*profile.LoadResult, error)
	Save(ctx context.Context, sess *model.Session, current model.Profile, form profile.Form) (*model.Profile, error)
	UploadAvatar(ctx context.Context, sess *model.Session, current model.Profile, file profile.AvatarFile) (*model.Profile, error)
	RemoveAvatar(ctx context.Context, sess *model.Session, current model.Profile) (*model.Profile, error)
}

// ProfileHandler はプロフィール画面のHTTPハンドラー。
type ProfileHandler struct {
	pages
	service ProfileServiceInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface, renderer Renderer, flash FlashStore) *ProfileHandler {
	return &ProfileHandler{
		pages:   pages{renderer: renderer, flash: flash},
		service: service,
	}
}

// Show はプロフィールを表示する。行がなければ作成してから表示する。
// GET /perfil?editar=1
func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}

	res, err := h.service.Load(r.Context(), session)
	if err != nil {
		h.renderError(w, r, http.StatusBadGateway, userMessage(err, profile.MsgLoadFailed))
		return
	}

	editor := profile.NewEditor(res.Profile)
	if r.URL.Query().Get("editar") == "1" {
		editor.Edit()
	}
	h.renderEditor(w, r, http.StatusOK, editor, nil)
}

// Save は編集フォームを保存する。成功したら表示モードに戻す。
// 失敗した場合は入力値を保持したまま編集モードで再表示する。
// acao=cancelar の場合は保存せず、サーバー側の値で表示モードに戻す。
// POST /perfil
func (h *ProfileHandler) Save(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}

	res, err := h.service.Load(r.Context(), session)
	if err != nil {
		h.renderError(w, r, http.StatusBadGateway, userMessage(err, profile.MsgLoadFailed))
		return
	}

	editor := profile.NewEditor(res.Profile)
	editor.Edit()
	editor.SetForm(profile.Form{
		FirstName: r.PostFormValue("firstName"),
		LastName:  r.PostFormValue("lastName"),
		Company:   r.PostFormValue("company"),
		Phone:     r.PostFormValue("phone"),
	})

	if r.PostFormValue(actionField) == actionCancel {
		editor.Cancel()
		h.renderEditor(w, r, http.StatusOK, editor, nil)
		return
	}

	if err := editor.BeginSave(); err != nil {
		slog.Error("failed to begin profile save", slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusInternalServerError, profile.MsgSaveUnexpected)
		return
	}

	updated, err := h.service.Save(r.Context(), session, editor.Profile(), editor.Form())
	if err == nil {
		if updated != nil {
			editor.SaveSucceeded(*updated)
		}
		h.flash.Success(w, profile.MsgSaved, flash.SaveLifetime)
		http.Redirect(w, r, profilePath, http.StatusSeeOther)
		return
	}

	editor.SaveFailed()
	message := userMessage(err, profile.MsgSaveUnexpected)

	// 再表示には最新のサーバー側の値を使う。取得できなければ編集前の値のまま表示する
	if latest, loadErr := h.service.Load(r.Context(), session); loadErr == nil {
		editor.ReplaceProfile(latest.Profile)
	} else {
		slog.Warn("failed to reload profile after save error",
			slog.String("user_id", session.UserID),
			slog.String("error", loadErr.Error()),
		)
	}
	h.renderEditor(w, r, saveErrorStatus(err), editor, &flash.Message{Kind: flash.KindError, Text: message})
}

func saveErrorStatus(err error) int {
	var appErr *model.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case model.ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case model.ErrCodeWriteInProgress:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// UploadAvatar はアバター画像をアップロードする。結果は一時メッセージで伝える。
// POST /perfil/avatar
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}

	if err := r.ParseMultipartForm(avatarMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.flash.Error(w, profile.MsgAvatarTooLarge)
		} else {
			slog.Warn("failed to parse avatar upload", slog.String("error", err.Error()))
			h.flash.Error(w, profile.MsgAvatarUnexpected)
		}
		http.Redirect(w, r, profilePath, http.StatusSeeOther)
		return
	}

	file, header, err := r.FormFile(avatarFieldName)
	if err != nil {
		h.flash.Error(w, profile.MsgAvatarNotImage)
		http.Redirect(w, r, profilePath, http.StatusSeeOther)
		return
	}
	defer file.Close()

	res, err := h.service.Load(r.Context(), session)
	if err != nil {
		h.flash.Error(w, userMessage(err, profile.MsgLoadFailed))
		http.Redirect(w, r, profilePath, http.StatusSeeOther)
		return
	}

	_, err = h.service.UploadAvatar(r.Context(), session, res.Profile, profile.AvatarFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		h.flash.Error(w, userMessage(err, profile.MsgAvatarUnexpected))
		http.Redirect(w, r, profilePath, http.StatusSeeOther)
		return
	}

	h.flash.Success(w, profile.MsgAvatarUpdated, flash.AvatarLifetime)
	http.Redirect(w, r, profilePath, http.StatusSeeOther)
}

// RequestTooLarge はボディの上限を超えたリクエストに応答する。
// アバターのアップロードはサイズの一時メッセージを付けてプロフィールへ戻す。
func (h *ProfileHandler) RequestTooLarge(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost && r.URL.Path == profilePath+avatarPath {
		h.flash.Error(w, profile.MsgAvatarTooLarge)
		http.Redirect(w, r, profilePath, http.StatusSeeOther)
		return
	}
	http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
}

// RemoveAvatar はアバター画像を削除する。
// POST /perfil/avatar/remover
func (h *ProfileHandler) RemoveAvatar(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}

	res, err := h.service.Load(r.Context(), session)
	if err != nil {
		h.flash.Error(w, userMessage(err, profile.MsgLoadFailed))
		http.Redirect(w, r, profilePath, http.StatusSeeOther)
		return
	}

	if _, err := h.service.RemoveAvatar(r.Context(), session, res.Profile); err != nil {
		h.flash.Error(w, userMessage(err, profile.MsgAvatarRemoveFailed))
		http.Redirect(w, r, profilePath, http.StatusSeeOther)
		return
	}

	if res.Profile.HasAvatar() {
		h.flash.Success(w, profile.MsgAvatarRemoved, flash.AvatarLifetime)
	}
	http.Redirect(w, r, profilePath, http.StatusSeeOther)
}

// renderEditor はEditorの状態でプロフィール画面を描画する。
// messageを渡した場合はCookieの一時メッセージより優先して表示する。
func (h *ProfileHandler) renderEditor(w http.ResponseWriter, r *http.Request, status int, editor *profile.Editor, message *flash.Message) {
	page := h.page(w, r, "Meu Perfil", web.ProfileView{
		Profile: editor.Profile(),
		Form:    editor.Form(),
		Editing: editor.Mode() == profile.ModeEditing,
	})
	if message != nil {
		page.Flash = message
	}
	h.renderer.Render(w, status, web.PageProfile, page)
}
