// Package model はドメインモデルを定義する。
package model

import "time"

// UserMetadata は認証サービスのユーザーに付与されたメタデータを表す。
// サインアップ時に登録した値であり、未設定の項目は空文字列となる。
type UserMetadata struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company"`
}

// AuthUser は認証サービスが発行したアクセストークンから得られる利用者の識別情報。
type AuthUser struct {
	ID       string
	Email    string
	Metadata UserMetadata
}

// Session はサーバー側で保持するログインセッションを表す。
// 認証サービスのトークンを保持するだけで、真のセッション状態は認証サービス側にある。
type Session struct {
	ID             string
	UserID         string
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt time.Time // アクセストークンの有効期限
	ExpiresAt      time.Time // ローカルセッションの有効期限
	CreatedAt      time.Time

	// User はアクセストークンから復元した識別情報。永続化しない。
	User AuthUser
}

// TokenExpired はアクセストークンがleeway以内に期限切れとなるかを判定する。
func (s *Session) TokenExpired(now time.Time, leeway time.Duration) bool {
	return !now.Add(leeway).Before(s.TokenExpiresAt)
}
