package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bie/internal/auth"
	"github.com/hitoshi/bie/internal/backend"
	"github.com/hitoshi/bie/internal/middleware"
	"github.com/hitoshi/bie/internal/model"
	"github.com/hitoshi/bie/internal/web"
)

const (
	verifierCookieName = "pkce_verifier"
	verifierMaxAge     = 600 // 10分
)

// コールバック画面の文言
const (
	MsgAuthFailed     = "Erro na autenticação. Tente novamente."
	MsgAuthUnexpected = "Erro inesperado. Redirecionando..."

	// callbackRefresh はエラー表示から3秒後にログイン画面へ戻す。
	callbackRefresh = "3;url=" + middleware.LoginPath
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Providers() []string
	LoginURL(provider string) (loginURL, verifier string, err error)
	CompleteOAuth(ctx context.Context, code, verifier string) (*model.Session, error)
	SignIn(ctx context.Context, in auth.SignInInput) (*model.Session, error)
	SignUp(ctx context.Context, in auth.SignUpInput) (*auth.SignUpResult, error)
	CurrentSession(ctx context.Context, sessionID string) (*model.Session, error)
	Logout(ctx context.Context, session *model.Session) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はログイン・サインアップ・OAuth・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	pages
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, renderer Renderer, flash FlashStore, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		pages:   pages{renderer: renderer, flash: flash},
		service: service,
		config:  config,
	}
}

// LoginPage はログイン画面を表示する。ログイン済みならダッシュボードへ遷移する。
// GET /login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.SessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, "", "")
}

// Login はメールアドレスとパスワードでログインする。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	session, err := h.service.SignIn(r.Context(), auth.SignInInput{
		Email:    email,
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		status := http.StatusUnauthorized
		var appErr *model.AppError
		switch {
		case !errors.As(err, &appErr):
			status = http.StatusInternalServerError
			slog.Error("sign in failed", slog.String("error", err.Error()))
		case appErr.Code == model.ErrCodeValidation:
			status = http.StatusBadRequest
		}
		h.renderLogin(w, r, status, email, userMessage(err, MsgUnexpected))
		return
	}

	h.setSessionCookie(w, session)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, email, message string) {
	ids := h.service.Providers()
	providers := make([]web.Provider, 0, len(ids))
	for _, id := range ids {
		providers = append(providers, web.Provider{ID: id, Label: web.ProviderLabel(id)})
	}
	h.render(w, r, status, web.PageLogin, "Entrar", web.LoginView{
		Providers: providers,
		Email:     email,
		Error:     message,
	})
}

// SignUpPage はサインアップ画面を表示する。
// GET /cadastro
func (h *AuthHandler) SignUpPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.SessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, web.PageSignUp, "Criar conta", web.SignUpView{})
}

// SignUp はユーザーを登録する。メール確認が必要な場合は確認待ちの画面を表示する。
// POST /cadastro
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	in := auth.SignUpInput{
		FirstName: r.PostFormValue("firstName"),
		LastName:  r.PostFormValue("lastName"),
		Company:   r.PostFormValue("company"),
		Email:     r.PostFormValue("email"),
		Password:  r.PostFormValue("password"),
	}
	view := web.SignUpView{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Company:   in.Company,
		Email:     in.Email,
	}

	res, err := h.service.SignUp(r.Context(), in)
	if err != nil {
		status := http.StatusBadRequest
		var appErr *model.AppError
		if !errors.As(err, &appErr) {
			status = http.StatusInternalServerError
			slog.Error("sign up failed", slog.String("error", err.Error()))
		}
		view.Error = userMessage(err, MsgUnexpected)
		h.render(w, r, status, web.PageSignUp, "Criar conta", view)
		return
	}

	if res.ConfirmationRequired || res.Session == nil {
		h.render(w, r, http.StatusOK, web.PageSignUp, "Criar conta", web.SignUpView{Pending: true})
		return
	}

	h.setSessionCookie(w, res.Session)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// StartOAuth はOAuthフロー（PKCE）を開始する。
// code_verifierは短命のHTTP Only Cookieに保持する。
// GET /auth/login/{provider}
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	loginURL, verifier, err := h.service.LoginURL(provider)
	if err != nil {
		slog.Warn("failed to start oauth",
			slog.String("provider", provider),
			slog.String("error", err.Error()),
		)
		if h.flash != nil {
			h.flash.Error(w, userMessage(err, MsgUnexpected))
		}
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     verifierCookieName,
		Value:    verifier,
		Path:     "/auth",
		Domain:   h.config.CookieDomain,
		MaxAge:   verifierMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, loginURL, http.StatusTemporaryRedirect)
}

// Callback は認証サービスからの戻りを処理する。
// エラーの場合はメッセージを表示して3秒後にログイン画面へ遷移する。
// GET /auth/callback
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errCode, desc := q.Get("error"), q.Get("error_description"); errCode != "" || desc != "" {
		slog.Warn("auth service returned error",
			slog.String("error_code", errCode),
			slog.String("error_description", desc),
		)
		h.renderCallbackError(w, r, MsgAuthFailed)
		return
	}

	if code := q.Get("code"); code != "" {
		h.exchangeCode(w, r, code)
		return
	}

	// 認可コードがなければ既存のセッションを確認する
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}
	session, err := h.service.CurrentSession(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("failed to query session on callback", slog.String("error", err.Error()))
		h.renderCallbackError(w, r, MsgAuthFailed)
		return
	}
	if session == nil {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) exchangeCode(w http.ResponseWriter, r *http.Request, code string) {
	verifier := ""
	if c, err := r.Cookie(verifierCookieName); err == nil {
		verifier = c.Value
	}
	h.clearCookie(w, verifierCookieName, "/auth")

	session, err := h.service.CompleteOAuth(r.Context(), code, verifier)
	if err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		msg := MsgAuthUnexpected
		if _, isRemote := backend.AsError(err); isRemote || errors.Is(err, auth.ErrCodeExchange) {
			msg = MsgAuthFailed
		}
		h.renderCallbackError(w, r, msg)
		return
	}

	h.setSessionCookie(w, session)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) renderCallbackError(w http.ResponseWriter, r *http.Request, message string) {
	page := h.page(w, r, "Autenticando", web.CallbackView{Message: message})
	page.Refresh = callbackRefresh
	h.renderer.Render(w, http.StatusOK, web.PageCallback, page)
}

// Logout は認証サービス側のセッションを無効化し、トップページへ遷移する。
// 失敗した場合はログに記録し、ダッシュボードに留まる。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}

	if err := h.service.Logout(r.Context(), session); err != nil {
		slog.Error("failed to logout",
			slog.String("user_id", session.UserID),
			slog.String("error", err.Error()),
		)
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	h.clearCookie(w, middleware.SessionCookieName, "/")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// setSessionCookie はセッションCookieを設定する（HTTP Only）。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, session *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
