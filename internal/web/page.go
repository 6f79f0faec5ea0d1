package web

import (
	"strings"

	"github.com/hitoshi/bie/internal/dashboard"
	"github.com/hitoshi/bie/internal/flash"
	"github.com/hitoshi/bie/internal/model"
	"github.com/hitoshi/bie/internal/profile"
)

// Page はレイアウトに渡す共通の表示データ。
type Page struct {
	Title     string
	CSRFToken string
	Flash     *flash.Message
	// Refresh はmeta refreshの値（例: "3;url=/login"）。
	Refresh string
	// Data は画面ごとの表示データ。
	Data any
}

// LandingView はトップページの表示データ。
type LandingView struct {
	Landing
	MenuOpen bool
}

// LoginView はログイン画面の表示データ。
type LoginView struct {
	Providers []Provider
	Email     string
	Error     string
}

// Provider はOAuthプロバイダーのボタン。
type Provider struct {
	ID    string
	Label string
}

// SignUpView はサインアップ画面の表示データ。
type SignUpView struct {
	FirstName string
	LastName  string
	Company   string
	Email     string
	Error     string
	// Pending はメール確認待ちであることを示す。
	Pending bool
}

// CallbackView は認証コールバック画面の表示データ。
type CallbackView struct {
	Message string
}

// DashboardView はダッシュボードの表示データ。
type DashboardView struct {
	Profile  model.Profile
	Sidebar  *dashboard.Sidebar
	Active   dashboard.Section
	Sections []dashboard.Section
	Counters []dashboard.Counter
	Steps    []dashboard.Step
}

// IsHome はダッシュボード区画が選択されているかを返す。
func (v DashboardView) IsHome() bool {
	return v.Active.ID == dashboard.SectionDashboard
}

// ComingSoon は未実装区画の文言を返す。
func (v DashboardView) ComingSoon() string {
	return dashboard.ComingSoon
}

// ProfileView はプロフィール画面の表示データ。
type ProfileView struct {
	Profile model.Profile
	Form    profile.Form
	Editing bool
}

// ErrorView はエラー画面の表示データ。
type ErrorView struct {
	Status  int
	Message string
}

// ProviderLabel はプロバイダーIDの表示名を返す。
func ProviderLabel(id string) string {
	switch id {
	case "google":
		return "Google"
	case "github":
		return "GitHub"
	case "azure":
		return "Microsoft"
	case "apple":
		return "Apple"
	case "":
		return ""
	default:
		return strings.ToUpper(id[:1]) + id[1:]
	}
}
