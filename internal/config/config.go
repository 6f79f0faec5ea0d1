// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// セッションストアの種類。
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort string `env:"SERVER_PORT, default=8080"`
	BaseURL    string `env:"BASE_URL"`

	// Backend
	BackendURL        string        `env:"BACKEND_URL"`
	BackendAnonKey    string        `env:"BACKEND_ANON_KEY"`
	BackendJWTSecret  string        `env:"BACKEND_JWT_SECRET"`
	BackendTimeout    time.Duration `env:"BACKEND_TIMEOUT, default=10s"`
	BackendAllowedIPs []string      `env:"BACKEND_ALLOWED_IPS"`
	AvatarBucket      string        `env:"AVATAR_BUCKET, default=avatars"`

	// Auth
	AuthProviders []string `env:"AUTH_PROVIDERS, default=google"`

	// Session
	SessionStore  string `env:"SESSION_STORE, default=memory"`
	SessionMaxAge int    `env:"SESSION_MAX_AGE, default=604800"`

	// Database
	DatabaseURL string `env:"DATABASE_URL"`

	// Redis
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB, default=0"`

	// Upload
	UploadMaxRequestBytes int64 `env:"UPLOAD_MAX_REQUEST_BYTES, default=16777216"`

	// Rate Limit（1分あたりのリクエスト数）
	RateLimitGeneral int `env:"RATE_LIMIT_GENERAL, default=120"`
	RateLimitUpload  int `env:"RATE_LIMIT_UPLOAD, default=10"`

	// Logging
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// Cookie
	CookieDomain string `env:"COOKIE_DOMAIN"`
	CookieSecure bool
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	return LoadWith(context.Background(), envconfig.OsLookuper())
}

// LoadWith は指定したLookuperからConfigを読み込む。
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")

	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string

	if c.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}
	if c.BackendURL == "" {
		missing = append(missing, "BACKEND_URL")
	}
	if c.BackendAnonKey == "" {
		missing = append(missing, "BACKEND_ANON_KEY")
	}

	switch c.SessionStore {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			missing = append(missing, "REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unsupported SESSION_STORE: %q", c.SessionStore)
	}

	if len(missing) > 0 {
		return fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive: %d", c.SessionMaxAge)
	}
	if c.RateLimitGeneral <= 0 || c.RateLimitUpload <= 0 {
		return fmt.Errorf("rate limits must be positive: general=%d upload=%d", c.RateLimitGeneral, c.RateLimitUpload)
	}
	return nil
}

// CallbackURL はOAuth完了後に戻るURLを返す。
func (c *Config) CallbackURL() string {
	return c.BaseURL + "/auth/callback"
}

// LoadDotEnv は開発用の.envファイルを環境変数に読み込む。
// ファイルが存在しない場合は何もしない。既存の環境変数は上書きしない。
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
