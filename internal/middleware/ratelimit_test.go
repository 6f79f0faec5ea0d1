package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testLimiterConfig(generalBurst, uploadBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    generalBurst,
		UploadRate:      rate.Limit(10.0 / 60.0),
		UploadBurst:     uploadBurst,
		CleanupInterval: time.Minute,
	}
}

func serveAs(h http.Handler, userID string) *httptest.ResponseRecorder {
	req := withUser(httptest.NewRequest(http.MethodPost, "/perfil/avatar", nil), userID)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGeneralMiddleware_AllowsBurstThen429(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(2, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		if w := serveAs(handler, "user-1"); w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}

	w := serveAs(handler, "user-1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}
	if !strings.Contains(w.Body.String(), RateLimitMessage) {
		t.Errorf("body = %q, want rate limit message", w.Body.String())
	}
}

func TestGeneralMiddleware_IsolatesUsers(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(1, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	if w := serveAs(handler, "user-a"); w.Code != http.StatusOK {
		t.Errorf("user-a first: status = %d", w.Code)
	}
	if w := serveAs(handler, "user-a"); w.Code != http.StatusTooManyRequests {
		t.Errorf("user-a second: status = %d, want 429", w.Code)
	}
	if w := serveAs(handler, "user-b"); w.Code != http.StatusOK {
		t.Errorf("user-b first: status = %d, want 200", w.Code)
	}
	if got := rl.LimiterCount(LimitGeneral); got != 2 {
		t.Errorf("LimiterCount(general) = %d, want 2", got)
	}
}

func TestUploadMiddleware_IndependentFromGeneral(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(100, 1))
	defer rl.Stop()

	upload := rl.UploadMiddleware()(okHandler())
	general := rl.GeneralMiddleware()(okHandler())

	if w := serveAs(upload, "user-1"); w.Code != http.StatusOK {
		t.Errorf("first upload: status = %d", w.Code)
	}
	w := serveAs(upload, "user-1")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second upload: status = %d, want 429", w.Code)
	}
	// 10/60 req/sec なので補充まで6秒
	if got := w.Header().Get("Retry-After"); got != "6" {
		t.Errorf("Retry-After = %q, want 6", got)
	}
	if w := serveAs(general, "user-1"); w.Code != http.StatusOK {
		t.Errorf("general after upload limit: status = %d, want 200", w.Code)
	}
	if got := rl.LimiterCount(LimitUpload); got != 1 {
		t.Errorf("LimiterCount(upload) = %d, want 1", got)
	}
}

func TestRateLimitMiddleware_NoUser_RedirectsToLogin(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	defer rl.Stop()

	w := httptest.NewRecorder()
	rl.GeneralMiddleware()(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
}

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	cfg := testLimiterConfig(5, 5)
	cfg.CleanupInterval = time.Hour
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	serveAs(rl.GeneralMiddleware()(okHandler()), "old-user")
	serveAs(rl.UploadMiddleware()(okHandler()), "old-user")

	// 間隔の2倍を過ぎるとエントリが削除される
	rl.cleanup(time.Now().Add(90 * time.Minute))
	if got := rl.LimiterCount(LimitGeneral); got != 1 {
		t.Errorf("LimiterCount(general) = %d, want 1 before the TTL", got)
	}
	rl.cleanup(time.Now().Add(3 * time.Hour))

	if got := rl.LimiterCount(LimitGeneral); got != 0 {
		t.Errorf("LimiterCount(general) = %d, want 0", got)
	}
	if got := rl.LimiterCount(LimitUpload); got != 0 {
		t.Errorf("LimiterCount(upload) = %d, want 0", got)
	}
}

func TestPerMinuteRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()
	if cfg.GeneralRate != rate.Limit(2) {
		t.Errorf("GeneralRate = %v, want 2", cfg.GeneralRate)
	}
	if cfg.GeneralBurst != 120 || cfg.UploadBurst != 10 {
		t.Errorf("bursts = %d, %d, want 120, 10", cfg.GeneralBurst, cfg.UploadBurst)
	}

	custom := PerMinuteRateLimiterConfig(60, 6)
	if custom.GeneralRate != rate.Limit(1) || custom.UploadRate != rate.Limit(0.1) {
		t.Errorf("rates = %v, %v, want 1, 0.1", custom.GeneralRate, custom.UploadRate)
	}
}
