package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bie/internal/middleware"
	"github.com/hitoshi/bie/internal/web"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// 描画
	Renderer Renderer
	Flash    FlashStore

	// ミドルウェア依存
	Logger          *slog.Logger
	SessionLoader   middleware.SessionLoader
	RateLimiter     *middleware.RateLimiter
	StatusRecorder  middleware.StatusRecorder
	CSRF            middleware.CSRFConfig
	SecurityHeaders middleware.SecurityHeadersConfig
	MaxBodyBytes    int64

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig
	AuthEvents  AuthEventSubscriber

	// ダッシュボード
	DashboardService DashboardServiceInterface

	// プロフィール
	ProfileService ProfileServiceInterface

	// 運用
	HealthChecks   map[string]HealthChecker
	MetricsHandler http.Handler
}

// NewRouter は全画面のルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RequestID → Logging → Metrics → SecurityHeaders → BodyLimit → CSRF
//
// 保護されたルートはさらに Session → RateLimit(General) を通る。
// アバターの変更はRateLimit(Upload)も通る。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	errorPages := NewErrorPages(deps.Renderer)
	landingHandler := NewLandingHandler(deps.Renderer)
	authHandler := NewAuthHandler(deps.AuthService, deps.Renderer, deps.Flash, deps.AuthConfig)
	dashboardHandler := NewDashboardHandler(deps.DashboardService, deps.AuthEvents, deps.Renderer, deps.Flash)
	profileHandler := NewProfileHandler(deps.ProfileService, deps.Renderer, deps.Flash)
	healthHandler := NewHealthHandler(deps.HealthChecks)

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware(errorPages.Panic))
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.SecurityHeaders))
	if deps.MaxBodyBytes > 0 {
		r.Use(middleware.NewBodyLimitMiddleware(deps.MaxBodyBytes, profileHandler.RequestTooLarge))
	}
	r.Use(middleware.NewCSRFMiddleware(deps.CSRF))

	r.NotFound(errorPages.NotFound)
	r.MethodNotAllowed(errorPages.MethodNotAllowed)

	// --- 認証不要のルート ---

	r.Get("/", landingHandler.Show)
	r.Handle("/static/*", web.StaticHandler())
	r.Get("/health", healthHandler.Health)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// ログイン済みならダッシュボードへ送るためセッションを任意で読む
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalSessionMiddleware(deps.SessionLoader))

		r.Get("/login", authHandler.LoginPage)
		r.Post("/login", authHandler.Login)
		r.Get("/cadastro", authHandler.SignUpPage)
		r.Post("/cadastro", authHandler.SignUp)
	})

	// OAuthフロー
	r.Route("/auth", func(r chi.Router) {
		r.Get("/login/{provider}", authHandler.StartOAuth)
		r.Get("/callback", authHandler.Callback)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionLoader))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/logout", authHandler.Logout)

		r.Get("/dashboard", dashboardHandler.Show)
		r.Get("/dashboard/events", dashboardHandler.Events)

		r.Route("/perfil", func(r chi.Router) {
			r.Get("/", profileHandler.Show)
			r.Post("/", profileHandler.Save)

			r.Group(func(r chi.Router) {
				r.Use(deps.RateLimiter.UploadMiddleware())
				r.Post(avatarPath, profileHandler.UploadAvatar)
				r.Post("/avatar/remover", profileHandler.RemoveAvatar)
			})
		})
	})

	return r
}
