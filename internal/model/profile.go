package model

import (
	"strings"
	"time"
)

// Profile はprofilesテーブルの1行を表す。
// セッションのメタデータ由来の値もこの型に揃えてから画面に渡す。
type Profile struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Company   *string    `json:"company"`
	Phone     *string    `json:"phone"`
	AvatarURL *string    `json:"avatar_url"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ProfileFromIdentity はセッションの識別情報からProfileを組み立てる。
// 会社名が空の場合は未設定として扱う。
func ProfileFromIdentity(u AuthUser) Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.Metadata.FirstName,
		LastName:  u.Metadata.LastName,
		Company:   OptionalString(u.Metadata.Company),
	}
}

// OptionalString は前後の空白を除いた値を返す。空文字列の場合はnilを返す。
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// StringValue はポインタの値を返す。nilの場合は空文字列を返す。
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// FullName は姓名をスペースで連結する。
func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// HasAvatar はアバター画像が設定されているかを返す。
func (p Profile) HasAvatar() bool {
	return StringValue(p.AvatarURL) != ""
}
