// Package flash は次の画面表示で一度だけ表示する一時メッセージをCookieで受け渡す。
package flash

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const cookieName = "flash"

// Kind はメッセージの種類。
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// メッセージのCookieの有効期間
const (
	// SaveLifetime はプロフィール保存成功の表示期間。
	SaveLifetime = 5 * time.Second
	// AvatarLifetime はアバター更新・削除成功の表示期間。
	AvatarLifetime = 3 * time.Second
	// ErrorLifetime はエラーの表示期間。次の操作まで表示する。
	ErrorLifetime = time.Minute
)

// Message は一時メッセージ。
type Message struct {
	Kind Kind   `json:"k"`
	Text string `json:"t"`
	// ClearAfter は画面上で自動的に消すまでの秒数。0の場合は消さない。
	ClearAfter int `json:"c,omitempty"`
}

// IsError はエラーメッセージかどうかを返す。
func (m Message) IsError() bool { return m.Kind == KindError }

// Config はCookieの属性。
type Config struct {
	CookieSecure bool
	CookieDomain string
}

// Store は一時メッセージを読み書きする。
type Store struct {
	config Config
}

// NewStore はStoreを生成する。
func NewStore(config Config) *Store {
	return &Store{config: config}
}

// Success は成功メッセージを設定する。lifetime経過後は表示されない。
func (s *Store) Success(w http.ResponseWriter, text string, lifetime time.Duration) {
	s.set(w, Message{Kind: KindSuccess, Text: text, ClearAfter: int(lifetime / time.Second)}, lifetime)
}

// Error はエラーメッセージを設定する。
func (s *Store) Error(w http.ResponseWriter, text string) {
	s.set(w, Message{Kind: KindError, Text: text}, ErrorLifetime)
}

func (s *Store) set(w http.ResponseWriter, m Message, lifetime time.Duration) {
	v, err := encode(m)
	if err != nil {
		slog.Error("failed to encode flash message", slog.String("error", err.Error()))
		return
	}

	maxAge := int(lifetime / time.Second)
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    v,
		Path:     "/",
		Domain:   s.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop はメッセージを取り出してCookieを削除する。メッセージがなければfalseを返す。
func (s *Store) Pop(w http.ResponseWriter, r *http.Request) (Message, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return Message{}, false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		Domain:   s.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	m, err := decode(c.Value)
	if err != nil {
		slog.Warn("discarding malformed flash cookie", slog.String("error", err.Error()))
		return Message{}, false
	}
	return m, true
}

func encode(m Message) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func decode(v string) (Message, error) {
	var m Message
	b, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, err
	}
	return m, nil
}
