package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSuccess_SetsCookieWithLifetime(t *testing.T) {
	s := NewStore(Config{CookieSecure: true})
	rec := httptest.NewRecorder()

	s.Success(rec, "✅ Perfil atualizado com sucesso!", SaveLifetime)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != "flash" {
		t.Errorf("Name = %q, want flash", c.Name)
	}
	if c.MaxAge != 5 {
		t.Errorf("MaxAge = %d, want 5", c.MaxAge)
	}
	if !c.HttpOnly || !c.Secure {
		t.Errorf("HttpOnly = %v, Secure = %v, want both true", c.HttpOnly, c.Secure)
	}
}

func TestPop_ReturnsAndClears(t *testing.T) {
	s := NewStore(Config{})

	set := httptest.NewRecorder()
	s.Success(set, "Foto de perfil atualizada com sucesso!", AvatarLifetime)

	req := httptest.NewRequest(http.MethodGet, "/perfil", nil)
	for _, c := range set.Result().Cookies() {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	m, ok := s.Pop(rec, req)
	if !ok {
		t.Fatal("Pop() ok = false, want true")
	}
	if m.Text != "Foto de perfil atualizada com sucesso!" || m.Kind != KindSuccess {
		t.Errorf("Pop() = %+v", m)
	}
	if m.ClearAfter != 3 {
		t.Errorf("ClearAfter = %d, want 3", m.ClearAfter)
	}

	cleared := rec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Errorf("cookies = %+v, want one expired flash cookie", cleared)
	}
}

func TestError_NoAutoClear(t *testing.T) {
	s := NewStore(Config{})

	set := httptest.NewRecorder()
	s.Error(set, "O nome é obrigatório.")

	c := set.Result().Cookies()[0]
	if c.MaxAge != int(ErrorLifetime/time.Second) {
		t.Errorf("MaxAge = %d, want %d", c.MaxAge, int(ErrorLifetime/time.Second))
	}

	req := httptest.NewRequest(http.MethodGet, "/perfil", nil)
	req.AddCookie(c)
	m, ok := s.Pop(httptest.NewRecorder(), req)
	if !ok || !m.IsError() || m.ClearAfter != 0 {
		t.Errorf("Pop() = %+v, %v, want error without auto clear", m, ok)
	}
}

func TestPop_NoCookie(t *testing.T) {
	s := NewStore(Config{})
	rec := httptest.NewRecorder()

	if _, ok := s.Pop(rec, httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Error("Pop() ok = true, want false")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("Pop() without cookie should not set cookies")
	}
}

func TestPop_Malformed(t *testing.T) {
	s := NewStore(Config{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "flash", Value: "%%%not-base64"})

	rec := httptest.NewRecorder()
	if _, ok := s.Pop(rec, req); ok {
		t.Error("Pop() ok = true, want false")
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Error("malformed cookie should be cleared")
	}
}
