// Package dashboard はダッシュボード画面の状態（サイドバー、区画、表示用プロフィール）を提供する。
package dashboard

import (
	"context"
	"log/slog"

	"github.com/hitoshi/bie/internal/model"
)

// DefaultFirstName はプロフィールを取得できない場合の名の既定値。
const DefaultFirstName = "Usuário"

// ProfileReader はプロフィール行を読み込む。
type ProfileReader interface {
	GetProfile(ctx context.Context, accessToken, id string) (*model.Profile, error)
}

// Service はダッシュボードの表示に必要なデータを集める。
type Service struct {
	profiles ProfileReader
}

// NewService はServiceを生成する。
func NewService(profiles ProfileReader) *Service {
	return &Service{profiles: profiles}
}

// Profile はセッションのユーザーのプロフィールを返す。
// 行の読み込みに失敗した場合はセッションのメタデータから組み立て、画面の表示は継続する。
// 2番目の戻り値は代替値を使ったかどうか。
func (s *Service) Profile(ctx context.Context, sess *model.Session) (model.Profile, bool) {
	p, err := s.profiles.GetProfile(ctx, sess.AccessToken, sess.UserID)
	if err == nil && p != nil {
		return *p, false
	}
	if err != nil {
		slog.Error("failed to load profile for dashboard",
			slog.String("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
	}
	return FallbackProfile(sess.User), true
}

// FallbackProfile はセッションの識別情報から表示用のプロフィールを作る。
func FallbackProfile(u model.AuthUser) model.Profile {
	p := model.ProfileFromIdentity(u)
	if p.FirstName == "" {
		p.FirstName = DefaultFirstName
	}
	return p
}
