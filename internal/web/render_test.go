package web

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/bie/internal/dashboard"
	"github.com/hitoshi/bie/internal/flash"
	"github.com/hitoshi/bie/internal/model"
	"github.com/hitoshi/bie/internal/profile"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return r
}

func render(t *testing.T, r *Renderer, name string, page *Page) string {
	t.Helper()
	var buf bytes.Buffer
	if err := r.Execute(&buf, name, page); err != nil {
		t.Fatalf("Execute(%s) error = %v", name, err)
	}
	return buf.String()
}

func assertContains(t *testing.T, body string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(body, w) {
			t.Errorf("body does not contain %q", w)
		}
	}
}

func assertNotContains(t *testing.T, body string, unwanted ...string) {
	t.Helper()
	for _, w := range unwanted {
		if strings.Contains(body, w) {
			t.Errorf("body unexpectedly contains %q", w)
		}
	}
}

func strPtr(s string) *string { return &s }

func TestRender_Landing(t *testing.T) {
	r := newTestRenderer(t)
	content := LandingContent()
	content.Year = 2026

	body := render(t, r, PageLanding, &Page{Data: LandingView{Landing: content}})

	assertContains(t, body,
		`id="recursos"`, `id="planos"`, `id="sobre"`, `id="contato"`,
		"IA Integrada com GPT", "Segurança Avançada",
		"Bronze", "Prata", "Ouro", "Mais Popular",
		"Contatar Vendas", "Começar Agora",
		"Nossa Missão", "Taxa de Satisfação",
		"© 2026 Bie",
	)
	// JavaScriptなしでも開けるよう、閉じた状態ではメニュー展開用のリンクを出す
	assertContains(t, body, `href="/?menu=aberto"`, "data-menu hidden")
}

func TestRender_LandingMenuOpen(t *testing.T) {
	r := newTestRenderer(t)
	body := render(t, r, PageLanding, &Page{Data: LandingView{Landing: LandingContent(), MenuOpen: true}})

	assertContains(t, body, `aria-expanded="true"`)
	assertNotContains(t, body, "data-menu hidden")
}

func TestRender_FlashAndRefresh(t *testing.T) {
	r := newTestRenderer(t)
	body := render(t, r, PageCallback, &Page{
		Refresh: "3;url=/login",
		Flash:   &flash.Message{Kind: flash.KindSuccess, Text: "Foto de perfil atualizada com sucesso!", ClearAfter: 3},
		Data:    CallbackView{Message: "Erro na autenticação. Tente novamente."},
	})

	assertContains(t, body,
		`<meta http-equiv="refresh" content="3;url=/login">`,
		`data-clear-after="3"`,
		"Foto de perfil atualizada com sucesso!",
		"Erro na autenticação. Tente novamente.",
	)
}

func TestRender_LoginEscapes(t *testing.T) {
	r := newTestRenderer(t)
	body := render(t, r, PageLogin, &Page{
		CSRFToken: "tok123",
		Data: LoginView{
			Providers: []Provider{{ID: "google", Label: "Google"}},
			Email:     `"><script>alert(1)</script>`,
			Error:     "E-mail ou senha inválidos.",
		},
	})

	assertContains(t, body, `href="/auth/login/google"`, "Continuar com Google", `value="tok123"`, "E-mail ou senha inválidos.")
	assertNotContains(t, body, "<script>alert(1)</script>")
}

func TestRender_SignUpPending(t *testing.T) {
	r := newTestRenderer(t)
	body := render(t, r, PageSignUp, &Page{Data: SignUpView{Pending: true}})

	assertContains(t, body, "Verifique seu e-mail para confirmar o cadastro.")
	assertNotContains(t, body, `action="/cadastro"`)
}

func TestRender_Dashboard(t *testing.T) {
	r := newTestRenderer(t)
	view := DashboardView{
		Profile:  model.Profile{FirstName: "Ana", LastName: "Souza", Email: "ana@example.com", Company: strPtr("Bie")},
		Sidebar:  dashboard.NewSidebar(),
		Active:   dashboard.LookupSection("dashboard"),
		Sections: dashboard.Sections(),
		Counters: dashboard.Counters(),
		Steps:    dashboard.FirstSteps(),
	}

	body := render(t, r, PageDashboard, &Page{CSRFToken: "tok", Data: view})
	assertContains(t, body,
		"Bem-vindo, Ana! 🎉", `<span class="badge">Bie</span>`,
		"Relatórios", "Dashboards", "Insights", "Primeiros Passos",
		"Visão geral dos seus dados e métricas",
		`action="/logout"`, `data-events="/dashboard/events"`,
		"sidebar-expanded", "sidebar=recolhido",
	)
	assertNotContains(t, body, "Esta funcionalidade estará disponível em breve.")
}

func TestRender_DashboardPlaceholder(t *testing.T) {
	r := newTestRenderer(t)
	sidebar := dashboard.NewSidebar()
	sidebar.Resize(500)
	view := DashboardView{
		Profile:  model.Profile{FirstName: "Usuário"},
		Sidebar:  sidebar,
		Active:   dashboard.LookupSection("reports"),
		Sections: dashboard.Sections(),
	}

	body := render(t, r, PageDashboard, &Page{Data: view})
	assertContains(t, body, "Esta funcionalidade estará disponível em breve.", "Em Desenvolvimento", "sidebar-collapsed", "Expandir Menu")
	assertNotContains(t, body, "Primeiros Passos")
}

func TestRender_ProfileViewing(t *testing.T) {
	r := newTestRenderer(t)
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := model.Profile{ID: "u1", Email: "ana@example.com", FirstName: "Ana", LastName: "Souza", CreatedAt: &created, UpdatedAt: &created}

	body := render(t, r, PageProfile, &Page{Data: ProfileView{Profile: p, Form: profile.FormFromProfile(p)}})
	assertContains(t, body,
		"Não informado", "(não editável)",
		"Membro desde:", "01/06/2025", "Última atualização:",
		`href="/perfil?editar=1"`, "AS",
	)
	assertNotContains(t, body, `action="/perfil"`, "Remover foto")
}

func TestRender_ProfileEditing(t *testing.T) {
	r := newTestRenderer(t)
	p := model.Profile{Email: "ana@example.com", FirstName: "Ana", LastName: "Souza", AvatarURL: strPtr("https://cdn.example.com/a.png")}

	body := render(t, r, PageProfile, &Page{CSRFToken: "tok", Data: ProfileView{
		Profile: p,
		Form:    profile.Form{FirstName: "Ana", LastName: "Souza", Company: "Nova"},
		Editing: true,
	}})
	assertContains(t, body,
		`action="/perfil"`, `name="company" value="Nova"`, "Cancelar", `name="acao" value="cancelar"`, "Salvar Alterações",
		`src="https://cdn.example.com/a.png"`, "Remover foto",
	)
}

func TestRender_Error(t *testing.T) {
	r := newTestRenderer(t)
	rec := httptest.NewRecorder()

	r.Render(rec, http.StatusInternalServerError, PageError, &Page{Data: ErrorView{Status: 500, Message: "Erro inesperado."}})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	assertContains(t, rec.Body.String(), "Erro inesperado.")
}

func TestRender_UnknownPage(t *testing.T) {
	r := newTestRenderer(t)
	rec := httptest.NewRecorder()

	r.Render(rec, http.StatusOK, "missing", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestStaticHandler(t *testing.T) {
	h := StaticHandler()
	for _, path := range []string{"/static/app.js", "/static/app.css"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestPlanCTALabel(t *testing.T) {
	for _, p := range LandingContent().Plans {
		want := "Começar Agora"
		if p.Name == "Ouro" {
			want = "Contatar Vendas"
		}
		if got := p.CTALabel(); got != want {
			t.Errorf("%s.CTALabel() = %q, want %q", p.Name, got, want)
		}
	}
}

func TestProviderLabel(t *testing.T) {
	tests := map[string]string{"google": "Google", "github": "GitHub", "gitlab": "Gitlab", "": ""}
	for id, want := range tests {
		if got := ProviderLabel(id); got != want {
			t.Errorf("ProviderLabel(%q) = %q, want %q", id, got, want)
		}
	}
}
