package handler

import (
	"net/http"
	"time"

	"github.com/hitoshi/bie/internal/web"
)

// LandingHandler はトップページのHTTPハンドラー。
type LandingHandler struct {
	pages
	content web.Landing
}

// NewLandingHandler はLandingHandlerを生成する。表示内容は起動時に1回だけ組み立てる。
func NewLandingHandler(renderer Renderer) *LandingHandler {
	return &LandingHandler{
		pages:   pages{renderer: renderer},
		content: web.LandingContent(),
	}
}

// Show はトップページを表示する。
// GET /?menu=aberto
func (h *LandingHandler) Show(w http.ResponseWriter, r *http.Request) {
	content := h.content
	content.Year = time.Now().Year()
	h.render(w, r, http.StatusOK, web.PageLanding, "", web.LandingView{
		Landing:  content,
		MenuOpen: r.URL.Query().Get("menu") == "aberto",
	})
}
