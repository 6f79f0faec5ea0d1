package dashboard

import (
	"net/http"
	"strconv"
	"strings"
)

// MobileBreakpoint はサイドバーを自動で折りたたむビューポート幅（px）。
const MobileBreakpoint = 768

// ビューポート幅を伝えるクライアントヒント
const (
	HeaderViewportWidth       = "Sec-CH-Viewport-Width"
	HeaderViewportWidthLegacy = "Viewport-Width"
)

// AcceptCH はレスポンスのAccept-CHヘッダーに設定する値。
const AcceptCH = HeaderViewportWidth + ", " + HeaderViewportWidthLegacy

// サイドバー状態のクエリパラメータ値
const (
	sidebarQuery     = "sidebar"
	sidebarCollapsed = "recolhido"
	sidebarExpanded  = "expandido"
)

// Sidebar はダッシュボードのサイドバーの展開状態を保持する。永続化しない。
type Sidebar struct {
	expanded bool
}

// NewSidebar は展開状態のSidebarを生成する。
func NewSidebar() *Sidebar {
	return &Sidebar{expanded: true}
}

// Resize はビューポート幅に応じて状態を更新する。768px未満で折りたたむ。
func (s *Sidebar) Resize(width int) {
	s.expanded = width >= MobileBreakpoint
}

// Toggle は展開状態を反転する。
func (s *Sidebar) Toggle() {
	s.expanded = !s.expanded
}

func (s *Sidebar) Expanded() bool { return s.expanded }

// ToggleState はトグル操作後の状態を表すクエリ値を返す（JavaScriptなしのリンク用）。
func (s *Sidebar) ToggleState() string {
	if s.expanded {
		return sidebarCollapsed
	}
	return sidebarExpanded
}

// SidebarFromRequest はリクエストからサイドバーの状態を決める。
// クライアントヒントのビューポート幅で初期状態を決め、?sidebar=の指定があればその状態へ切り替える。
// どちらもなければ展開とする。
func SidebarFromRequest(r *http.Request) *Sidebar {
	s := NewSidebar()

	if w, ok := viewportWidth(r.Header); ok {
		s.Resize(w)
	}

	switch r.URL.Query().Get(sidebarQuery) {
	case sidebarCollapsed:
		if s.expanded {
			s.Toggle()
		}
	case sidebarExpanded:
		if !s.expanded {
			s.Toggle()
		}
	}
	return s
}

func viewportWidth(h http.Header) (int, bool) {
	for _, name := range []string{HeaderViewportWidth, HeaderViewportWidthLegacy} {
		v := strings.TrimSpace(h.Get(name))
		if v == "" {
			continue
		}
		// 小数で送られることがある
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			continue
		}
		return int(f), true
	}
	return 0, false
}
