package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/bie/internal/auth"
	"github.com/hitoshi/bie/internal/flash"
	"github.com/hitoshi/bie/internal/middleware"
	"github.com/hitoshi/bie/internal/model"
	"github.com/hitoshi/bie/internal/profile"
	"github.com/hitoshi/bie/internal/web"
)

// --- モック定義 ---

type renderCall struct {
	status int
	name   string
	page   *web.Page
}

type mockRenderer struct {
	calls []renderCall
}

func (m *mockRenderer) Render(w http.ResponseWriter, status int, name string, page *web.Page) {
	m.calls = append(m.calls, renderCall{status: status, name: name, page: page})
	w.WriteHeader(status)
}

func (m *mockRenderer) last(t *testing.T) renderCall {
	t.Helper()
	if len(m.calls) == 0 {
		t.Fatal("nothing was rendered")
	}
	return m.calls[len(m.calls)-1]
}

type mockAuthService struct {
	providersFn      func() []string
	loginURLFn       func(provider string) (string, string, error)
	completeOAuthFn  func(ctx context.Context, code, verifier string) (*model.Session, error)
	signInFn         func(ctx context.Context, in auth.SignInInput) (*model.Session, error)
	signUpFn         func(ctx context.Context, in auth.SignUpInput) (*auth.SignUpResult, error)
	currentSessionFn func(ctx context.Context, sessionID string) (*model.Session, error)
	logoutFn         func(ctx context.Context, session *model.Session) error
}

func (m *mockAuthService) Providers() []string {
	if m.providersFn != nil {
		return m.providersFn()
	}
	return []string{"google"}
}

func (m *mockAuthService) LoginURL(provider string) (string, string, error) {
	if m.loginURLFn != nil {
		return m.loginURLFn(provider)
	}
	return "", "", nil
}

func (m *mockAuthService) CompleteOAuth(ctx context.Context, code, verifier string) (*model.Session, error) {
	if m.completeOAuthFn != nil {
		return m.completeOAuthFn(ctx, code, verifier)
	}
	return nil, nil
}

func (m *mockAuthService) SignIn(ctx context.Context, in auth.SignInInput) (*model.Session, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, in)
	}
	return nil, nil
}

func (m *mockAuthService) SignUp(ctx context.Context, in auth.SignUpInput) (*auth.SignUpResult, error) {
	if m.signUpFn != nil {
		return m.signUpFn(ctx, in)
	}
	return &auth.SignUpResult{ConfirmationRequired: true}, nil
}

func (m *mockAuthService) CurrentSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if m.currentSessionFn != nil {
		return m.currentSessionFn(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, session *model.Session) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, session)
	}
	return nil
}

type mockDashboardService struct {
	profileFn func(ctx context.Context, sess *model.Session) (model.Profile, bool)
}

func (m *mockDashboardService) Profile(ctx context.Context, sess *model.Session) (model.Profile, bool) {
	if m.profileFn != nil {
		return m.profileFn(ctx, sess)
	}
	return model.Profile{ID: sess.UserID, FirstName: "Usuário"}, true
}

type mockProfileService struct {
	loadFn         func(ctx context.Context, sess *model.Session) (*profile.LoadResult, error)
	saveFn         func(ctx context.Context, sess *model.Session, current model.Profile, form profile.Form) (*model.Profile, error)
	uploadAvatarFn func(ctx context.Context, sess *model.Session, current model.Profile, file profile.AvatarFile) (*model.Profile, error)
	removeAvatarFn func(ctx context.Context, sess *model.Session, current model.Profile) (*model.Profile, error)
}

func (m *mockProfileService) Load(ctx context.Context, sess *model.Session) (*profile.LoadResult, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx, sess)
	}
	return &profile.LoadResult{Profile: model.Profile{ID: sess.UserID, FirstName: "Ana", LastName: "Silva"}}, nil
}

func (m *mockProfileService) Save(ctx context.Context, sess *model.Session, current model.Profile, form profile.Form) (*model.Profile, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, sess, current, form)
	}
	return &model.Profile{ID: sess.UserID, FirstName: form.FirstName, LastName: form.LastName}, nil
}

func (m *mockProfileService) UploadAvatar(ctx context.Context, sess *model.Session, current model.Profile, file profile.AvatarFile) (*model.Profile, error) {
	if m.uploadAvatarFn != nil {
		return m.uploadAvatarFn(ctx, sess, current, file)
	}
	return &current, nil
}

func (m *mockProfileService) RemoveAvatar(ctx context.Context, sess *model.Session, current model.Profile) (*model.Profile, error) {
	if m.removeAvatarFn != nil {
		return m.removeAvatarFn(ctx, sess, current)
	}
	current.AvatarURL = nil
	return &current, nil
}

// --- ヘルパー ---

func testSession() *model.Session {
	return &model.Session{
		ID:     "session-1",
		UserID: "user-1",
		User: model.AuthUser{
			ID:       "user-1",
			Email:    "ana@example.com",
			Metadata: model.UserMetadata{FirstName: "Ana", LastName: "Silva"},
		},
	}
}

// withSession はセッションミドルウェア通過後のリクエストを模す。
func withSession(req *http.Request, s *model.Session) *http.Request {
	return req.WithContext(middleware.ContextWithSession(req.Context(), s))
}

func newFlashStore() *flash.Store {
	return flash.NewStore(flash.Config{})
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// popFlash はレスポンスで設定された一時メッセージを読み出す。
func popFlash(t *testing.T, resp *http.Response) (flash.Message, bool) {
	t.Helper()
	c := findCookie(resp, "flash")
	if c == nil || c.MaxAge < 0 {
		return flash.Message{}, false
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	return newFlashStore().Pop(httptest.NewRecorder(), req)
}
