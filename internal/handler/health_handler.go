package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

// HealthChecker は依存先の疎通を確認する。
type HealthChecker interface {
	Check(ctx context.Context) error
}

// HealthCheckFunc は関数をHealthCheckerとして使うためのアダプタ。
type HealthCheckFunc func(ctx context.Context) error

// Check はf(ctx)を呼ぶ。
func (f HealthCheckFunc) Check(ctx context.Context) error { return f(ctx) }

// HealthHandler は死活監視のHTTPハンドラー。
type HealthHandler struct {
	checks  map[string]HealthChecker
	timeout time.Duration
}

// NewHealthHandler はHealthHandlerを生成する。checksが空の場合は常に200を返す。
func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 3 * time.Second}
}

type healthResponse struct {
	Status string   `json:"status"`
	Failed []string `json:"failed,omitempty"`
}

// Health は依存先を確認して結果を返す。
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var failed []string
	for name, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			slog.Error("health check failed",
				slog.String("check", name),
				slog.String("error", err.Error()),
			)
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)

	status := http.StatusOK
	resp := healthResponse{Status: "ok"}
	if len(failed) > 0 {
		status = http.StatusServiceUnavailable
		resp = healthResponse{Status: "unavailable", Failed: failed}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
