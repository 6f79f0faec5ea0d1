package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandler_Health(t *testing.T) {
	ok := HealthCheckFunc(func(ctx context.Context) error { return nil })
	down := HealthCheckFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		checks     map[string]HealthChecker
		wantStatus int
		wantBody   healthResponse
	}{
		{
			name:       "no checks",
			checks:     nil,
			wantStatus: http.StatusOK,
			wantBody:   healthResponse{Status: "ok"},
		},
		{
			name:       "all healthy",
			checks:     map[string]HealthChecker{"database": ok, "backend": ok},
			wantStatus: http.StatusOK,
			wantBody:   healthResponse{Status: "ok"},
		},
		{
			name:       "failures are sorted",
			checks:     map[string]HealthChecker{"redis": down, "backend": ok, "database": down},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   healthResponse{Status: "unavailable", Failed: []string{"database", "redis"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.checks)

			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}

			var got healthResponse
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Status != tt.wantBody.Status || len(got.Failed) != len(tt.wantBody.Failed) {
				t.Fatalf("body = %+v, want %+v", got, tt.wantBody)
			}
			for i := range got.Failed {
				if got.Failed[i] != tt.wantBody.Failed[i] {
					t.Errorf("Failed[%d] = %q, want %q", i, got.Failed[i], tt.wantBody.Failed[i])
				}
			}
		})
	}
}

func TestHealthHandler_ChecksReceiveDeadline(t *testing.T) {
	var hasDeadline bool
	h := NewHealthHandler(map[string]HealthChecker{
		"database": HealthCheckFunc(func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		}),
	})

	h.Health(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if !hasDeadline {
		t.Error("health checks should run with a timeout")
	}
}
