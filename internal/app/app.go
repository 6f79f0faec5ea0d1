package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/bie/internal/auth"
	"github.com/hitoshi/bie/internal/backend"
	"github.com/hitoshi/bie/internal/config"
	"github.com/hitoshi/bie/internal/dashboard"
	"github.com/hitoshi/bie/internal/database"
	"github.com/hitoshi/bie/internal/flash"
	"github.com/hitoshi/bie/internal/handler"
	"github.com/hitoshi/bie/internal/logger"
	"github.com/hitoshi/bie/internal/metrics"
	"github.com/hitoshi/bie/internal/middleware"
	"github.com/hitoshi/bie/internal/profile"
	"github.com/hitoshi/bie/internal/repository"
	"github.com/hitoshi/bie/internal/security"
	"github.com/hitoshi/bie/internal/web"
	"github.com/hitoshi/bie/internal/worker/cleanup"
)

const (
	shutdownTimeout = 30 * time.Second
	pingTimeout     = 5 * time.Second
)

// Init はアプリケーションの初期化を行う。
// .envと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 開発用の.envを読み込む（存在しなければ何もしない）
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 4. 設定されたレベルでログを作り直す
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
		slog.String("session_store", cfg.SessionStore),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// sessionStore はSESSION_STOREに応じて開いたセッションの保存先。
type sessionStore struct {
	repo repository.SessionRepository
	// expired は定期削除が必要なストアのみ設定する。RedisはTTLで失効する。
	expired cleanup.ExpiredSessionDeleter
	check   handler.HealthChecker
	close   func() error
}

// openSessionStore は設定されたセッションストアに接続する。
func openSessionStore(ctx context.Context, cfg *config.Config) (*sessionStore, error) {
	switch cfg.SessionStore {
	case config.StorePostgres:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Ping(ctx, db, pingTimeout); err != nil {
			db.Close()
			return nil, err
		}
		slog.Info("database connection established")

		repo := repository.NewPostgresSessionRepo(db)
		return &sessionStore{
			repo:    repo,
			expired: repo,
			check: handler.HealthCheckFunc(func(ctx context.Context) error {
				return db.PingContext(ctx)
			}),
			close: db.Close,
		}, nil

	case config.StoreRedis:
		client, err := database.ConnectRedis(ctx, database.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("redis connection established")

		return &sessionStore{
			repo: repository.NewRedisSessionRepo(client),
			check: handler.HealthCheckFunc(func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			}),
			close: client.Close,
		}, nil

	default:
		repo := repository.NewMemorySessionRepo()
		return &sessionStore{repo: repo, expired: repo}, nil
	}
}

func (s *sessionStore) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// metricsRegistry はメトリクスの登録先と公開元を兼ねるレジストリ。
type metricsRegistry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// application は配線済みのHTTPハンドラーと、停止時に後始末が必要な部品。
type application struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
	cleanupJob  *cleanup.SessionCleanupJob
}

// newApplication は全依存関係をワイヤリングしてアプリケーションを組み立てる。
func newApplication(cfg *config.Config, store *sessionStore, reg metricsRegistry) (*application, error) {
	// 1. 計測
	collector := metrics.NewCollector(reg)

	// 2. バックエンドクライアント（バックエンドのホスト以外へは接続しない）
	httpClient, err := security.NewBackendHTTPClient(security.BackendClientConfig{
		BaseURL:    cfg.BackendURL,
		Timeout:    cfg.BackendTimeout,
		AllowedIPs: cfg.BackendAllowedIPs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create backend http client: %w", err)
	}
	client, err := backend.NewClient(backend.Config{
		BaseURL:    cfg.BackendURL,
		AnonKey:    cfg.BackendAnonKey,
		HTTPClient: httpClient,
		Observer:   collector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	// 3. ドメインサービスの初期化
	notifier := auth.NewNotifier()
	authService := auth.NewService(
		client, store.repo, auth.NewTokenParser(cfg.BackendJWTSecret), notifier, collector,
		auth.ServiceConfig{
			SessionMaxAge: cfg.SessionMaxAge,
			Providers:     cfg.AuthProviders,
			CallbackURL:   cfg.CallbackURL(),
		},
	)
	profileService := profile.NewService(client, security.NewMarkupDetector(), collector, profile.ServiceConfig{
		AvatarBucket: cfg.AvatarBucket,
	})
	dashboardService := dashboard.NewService(client)

	// 4. 描画
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	// 5. ヘルスチェック
	checks := map[string]handler.HealthChecker{
		"backend": handler.HealthCheckFunc(client.Health),
	}
	if store.check != nil {
		checks["session_store"] = store.check
	}

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.PerMinuteRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitUpload),
	)

	router := handler.NewRouter(&handler.RouterDeps{
		Renderer: renderer,
		Flash: flash.NewStore(flash.Config{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		}),

		Logger:         slog.Default(),
		SessionLoader:  authService,
		RateLimiter:    rateLimiter,
		StatusRecorder: collector,
		CSRF: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		SecurityHeaders: middleware.SecurityHeadersConfig{
			ImageOrigins: []string{cfg.BackendURL},
			HSTS:         cfg.CookieSecure,
		},
		MaxBodyBytes: cfg.UploadMaxRequestBytes,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},
		AuthEvents: notifier,

		DashboardService: dashboardService,
		ProfileService:   profileService,

		HealthChecks:   checks,
		MetricsHandler: metrics.Handler(reg),
	})

	app := &application{handler: router, rateLimiter: rateLimiter}
	if store.expired != nil {
		app.cleanupJob = cleanup.NewSessionCleanupJob(store.expired, slog.Default())
	}
	return app, nil
}

// runServe はHTTPサーバーモードで起動する。
// セッションストアに接続し、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. セッションストア
	store, err := openSessionStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()

	// 2. メトリクスのレジストリ
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// 3. ワイヤリング
	app, err := newApplication(cfg, store, reg)
	if err != nil {
		return err
	}
	defer app.rateLimiter.Stop()

	// 4. 期限切れセッションの定期削除
	if app.cleanupJob != nil {
		go app.cleanupJob.Start(ctx)
	}

	// 5. HTTPサーバーの起動
	// SSE接続はShutdownを待たせ続けるため、停止開始時にリクエストのコンテキストを取り消す
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	server.RegisterOnShutdown(cancelRequests)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("HTTP server stopped gracefully")
	return nil
}

// runMigrate はセッションテーブルのマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for migrate")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	res, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(res.Version)),
		slog.Bool("changed", res.Changed),
		slog.Bool("dirty", res.Dirty),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
