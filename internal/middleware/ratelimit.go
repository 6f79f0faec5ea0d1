package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // 画面操作全般のレート（req/sec）。120/60 = 2 req/sec
	GeneralBurst    int           // 画面操作全般のバーストサイズ
	UploadRate      rate.Limit    // アバターアップロードのレート（req/sec）。10/60
	UploadBurst     int           // アバターアップロードのバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 全般 120 req/min/user、アバターアップロード 10 req/min/user
func DefaultRateLimiterConfig() RateLimiterConfig {
	return PerMinuteRateLimiterConfig(120, 10)
}

// PerMinuteRateLimiterConfig は1分あたりのリクエスト数からレート制限設定を作る。
// バーストサイズは1分あたりの上限と同じにする。
func PerMinuteRateLimiterConfig(generalPerMin, uploadPerMin int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(generalPerMin) / 60.0),
		GeneralBurst:    generalPerMin,
		UploadRate:      rate.Limit(float64(uploadPerMin) / 60.0),
		UploadBurst:     uploadPerMin,
		CleanupInterval: 5 * time.Minute,
	}
}

// LimitClass はレート制限の種類。種類ごとにユーザー単位のトークンバケットを持つ。
type LimitClass string

const (
	LimitGeneral LimitClass = "general"
	LimitUpload  LimitClass = "avatar_upload"
)

type bucketSpec struct {
	rate  rate.Limit
	burst int
}

type limiterKey struct {
	class  LimitClass
	userID string
}

type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はユーザーごとのレート制限を管理する。
// 画面操作全般とアバターアップロードのバケットは独立している。
type RateLimiter struct {
	specs    map[LimitClass]bucketSpec
	interval time.Duration

	mu       sync.Mutex
	limiters map[limiterKey]*userLimiter

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		specs: map[LimitClass]bucketSpec{
			LimitGeneral: {rate: config.GeneralRate, burst: config.GeneralBurst},
			LimitUpload:  {rate: config.UploadRate, burst: config.UploadBurst},
		},
		interval: config.CleanupInterval,
		limiters: make(map[limiterKey]*userLimiter),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware は画面操作全般のレート制限ミドルウェアを返す。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return rl.Middleware(LimitGeneral)
}

// UploadMiddleware はアバター変更のレート制限ミドルウェアを返す。
func (rl *RateLimiter) UploadMiddleware() func(next http.Handler) http.Handler {
	return rl.Middleware(LimitUpload)
}

// Middleware はclassのレート制限ミドルウェアを返す。
// SessionMiddlewareの後に配置する。ユーザーがいなければログイン画面へ送る。
func (rl *RateLimiter) Middleware(class LimitClass) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			if !rl.allow(class, userID) {
				slog.Warn("rate limit exceeded",
					slog.String("user_id", userID),
					slog.String("limit_type", string(class)),
				)
				writeRateLimitResponse(w, rl.specs[class].rate)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LimiterCount はclassで管理されているユーザー数を返す。
func (rl *RateLimiter) LimiterCount(class LimitClass) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	n := 0
	for k := range rl.limiters {
		if k.class == class {
			n++
		}
	}
	return n
}

func (rl *RateLimiter) allow(class LimitClass, userID string) bool {
	key := limiterKey{class: class, userID: userID}
	now := time.Now()

	rl.mu.Lock()
	ul, ok := rl.limiters[key]
	if !ok {
		spec := rl.specs[class]
		ul = &userLimiter{limiter: rate.NewLimiter(spec.rate, spec.burst)}
		rl.limiters[key] = ul
	}
	ul.lastAccess = now
	rl.mu.Unlock()

	return ul.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセスからクリーンアップ間隔の2倍を過ぎたエントリを削除する。
func (rl *RateLimiter) cleanup(now time.Time) {
	ttl := rl.interval * 2

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for k, ul := range rl.limiters {
		if now.Sub(ul.lastAccess) > ttl {
			delete(rl.limiters, k)
		}
	}
}

// RateLimitMessage は上限超過時に表示する文言。
const RateLimitMessage = "Muitas requisições. Aguarde alguns instantes e tente novamente."

// writeRateLimitResponse は429を書き込む。Retry-Afterは1トークンが補充されるまでの秒数。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfter := 1
	if r > 0 {
		retryAfter = max(1, int(math.Ceil(1/float64(r))))
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	http.Error(w, RateLimitMessage, http.StatusTooManyRequests)
}
