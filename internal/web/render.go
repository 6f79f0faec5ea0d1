// Package web はHTMLテンプレートの描画と画面ごとの表示データを提供する。
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bie/internal/model"
	"github.com/hitoshi/bie/internal/profile"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// 画面テンプレート名
const (
	PageLanding   = "landing"
	PageLogin     = "login"
	PageSignUp    = "signup"
	PageCallback  = "callback"
	PageDashboard = "dashboard"
	PageProfile   = "profile"
	PageError     = "error"
)

var pageNames = []string{
	PageLanding,
	PageLogin,
	PageSignUp,
	PageCallback,
	PageDashboard,
	PageProfile,
	PageError,
}

var funcs = template.FuncMap{
	"display":    profile.DisplayValue,
	"displayPtr": profile.DisplayPtr,
	"formatDate": profile.FormatDate,
	"initials":   profile.Initials,
	"deref":      model.StringValue,
}

// Renderer は埋め込みテンプレートから画面を描画する。
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer はテンプレートを読み込んでRendererを生成する。
// 各画面はレイアウトと組み合わせて個別にパースする。
func NewRenderer() (*Renderer, error) {
	return newRenderer(templateFS)
}

func newRenderer(fsys fs.FS) (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(fsys, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render は画面を描画してレスポンスに書き込む。
// 実行中の失敗で中途半端なHTMLを返さないよう、一度バッファに描画する。
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page *Page) {
	var buf bytes.Buffer
	if err := r.Execute(&buf, name, page); err != nil {
		slog.Error("failed to render page",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Execute は画面をbufに描画する。
func (r *Renderer) Execute(buf *bytes.Buffer, name string, page *Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	if page == nil {
		page = &Page{}
	}
	return t.ExecuteTemplate(buf, "layout", page)
}

// StaticHandler は埋め込み済みのCSSとJavaScriptを配信するハンドラーを返す。
// /static/ 配下にマウントすることを前提とする。
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
