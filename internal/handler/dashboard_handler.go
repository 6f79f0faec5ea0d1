package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/bie/internal/auth"
	"github.com/hitoshi/bie/internal/dashboard"
	"github.com/hitoshi/bie/internal/middleware"
	"github.com/hitoshi/bie/internal/model"
	"github.com/hitoshi/bie/internal/web"
)

// DefaultKeepAlive はSSEのキープアライブ間隔。
const DefaultKeepAlive = 25 * time.Second

// DashboardServiceInterface はダッシュボードの表示データを提供する。
type DashboardServiceInterface interface {
	Profile(ctx context.Context, sess *model.Session) (model.Profile, bool)
}

// AuthEventSubscriber は認証状態の変化を購読する。
type AuthEventSubscriber interface {
	Subscribe(userID string) *auth.Subscription
}

// DashboardHandler はダッシュボード画面と認証状態のイベントストリームのHTTPハンドラー。
type DashboardHandler struct {
	pages
	service   DashboardServiceInterface
	events    AuthEventSubscriber
	keepAlive time.Duration
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(service DashboardServiceInterface, events AuthEventSubscriber, renderer Renderer, flash FlashStore) *DashboardHandler {
	return &DashboardHandler{
		pages:     pages{renderer: renderer, flash: flash},
		service:   service,
		events:    events,
		keepAlive: DefaultKeepAlive,
	}
}

// Show はダッシュボードを表示する。
// GET /dashboard?secao={section}&sidebar={recolhido|expandido}
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}

	p, _ := h.service.Profile(r.Context(), session)
	active := dashboard.LookupSection(r.URL.Query().Get("secao"))

	w.Header().Set("Accept-CH", dashboard.AcceptCH)
	w.Header().Add("Vary", dashboard.AcceptCH)
	h.render(w, r, http.StatusOK, web.PageDashboard, active.Name, web.DashboardView{
		Profile:  p,
		Sidebar:  dashboard.SidebarFromRequest(r),
		Active:   active,
		Sections: dashboard.Sections(),
		Counters: dashboard.Counters(),
		Steps:    dashboard.FirstSteps(),
	})
}

// Events は画面が開いている間、認証状態の変化をServer-Sent Eventsで配信する。
// サインアウトを受け取ったらsigned_outイベントを送って終了する。
// 切断時・サーバー停止時は必ず購読を解除する。
// GET /dashboard/events
func (h *DashboardHandler) Events(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sub := h.events.Subscribe(session.UserID)
	defer sub.Unsubscribe()

	rc := http.NewResponseController(w)
	// SSEは長時間接続のためサーバーの書き込みタイムアウトを外す
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, rc, ": connected\n\n"); err != nil {
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := writeEvent(w, rc, ": keep-alive\n\n"); err != nil {
				return
			}
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if ev.Type != auth.EventSignedOut {
				continue
			}
			slog.Info("pushing sign-out to dashboard",
				slog.String("user_id", session.UserID),
				slog.String("subscription_id", sub.ID),
			)
			_ = writeEvent(w, rc, fmt.Sprintf("event: signed_out\ndata: %s\n\n", middleware.LoginPath))
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, chunk string) error {
	if _, err := fmt.Fprint(w, chunk); err != nil {
		return err
	}
	return rc.Flush()
}
