package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hitoshi/bie/internal/model"
)

// User は認証サービスのユーザーオブジェクト。
type User struct {
	ID           string             `json:"id"`
	Email        string             `json:"email"`
	UserMetadata model.UserMetadata `json:"user_metadata"`
}

// TokenResponse はトークンエンドポイントのレスポンス。
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// AuthorizeURL はOAuthプロバイダーでのログインを開始するURLを生成する。
// PKCEのcode_challengeはS256で計算済みの値を渡す。
func (c *Client) AuthorizeURL(provider, redirectTo, codeChallenge string) string {
	q := url.Values{
		"provider":              {provider},
		"redirect_to":           {redirectTo},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {"s256"},
	}
	return c.endpoint("/auth/v1/authorize", q)
}

// ExchangeCode はコールバックで受け取った認可コードをセッショントークンに交換する。
func (c *Client) ExchangeCode(ctx context.Context, authCode, codeVerifier string) (*TokenResponse, error) {
	var tr TokenResponse
	err := c.do(ctx, request{
		operation: "auth.exchange_code",
		method:    http.MethodPost,
		path:      "/auth/v1/token",
		query:     url.Values{"grant_type": {"pkce"}},
		jsonBody: map[string]string{
			"auth_code":     authCode,
			"code_verifier": codeVerifier,
		},
	}, &tr)
	if err != nil {
		return nil, err
	}
	return validateToken("auth.exchange_code", &tr)
}

// SignInWithPassword はメールアドレスとパスワードでサインインする。
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*TokenResponse, error) {
	var tr TokenResponse
	err := c.do(ctx, request{
		operation: "auth.sign_in",
		method:    http.MethodPost,
		path:      "/auth/v1/token",
		query:     url.Values{"grant_type": {"password"}},
		jsonBody: map[string]string{
			"email":    email,
			"password": password,
		},
	}, &tr)
	if err != nil {
		return nil, err
	}
	return validateToken("auth.sign_in", &tr)
}

// RefreshSession はリフレッシュトークンで新しいトークンを取得する。
// リフレッシュトークンはローテーションされるため、戻り値で置き換えること。
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var tr TokenResponse
	err := c.do(ctx, request{
		operation: "auth.refresh",
		method:    http.MethodPost,
		path:      "/auth/v1/token",
		query:     url.Values{"grant_type": {"refresh_token"}},
		jsonBody:  map[string]string{"refresh_token": refreshToken},
	}, &tr)
	if err != nil {
		return nil, err
	}
	return validateToken("auth.refresh", &tr)
}

// signUpResponse はサインアップのレスポンス。
// メール確認が不要な場合はトークンを含み、必要な場合はユーザーオブジェクトのみが返る。
type signUpResponse struct {
	TokenResponse
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SignUp はユーザーを登録する。metaはユーザーメタデータとして保存される。
// メール確認待ちの場合はAccessTokenが空のTokenResponseを返す。
func (c *Client) SignUp(ctx context.Context, email, password string, meta model.UserMetadata) (*TokenResponse, error) {
	var sr signUpResponse
	err := c.do(ctx, request{
		operation: "auth.sign_up",
		method:    http.MethodPost,
		path:      "/auth/v1/signup",
		jsonBody: map[string]any{
			"email":    email,
			"password": password,
			"data":     meta,
		},
	}, &sr)
	if err != nil {
		return nil, err
	}

	tr := sr.TokenResponse
	if tr.AccessToken == "" {
		tr.User = User{ID: sr.ID, Email: sr.Email, UserMetadata: meta}
		return &tr, nil
	}
	return validateToken("auth.sign_up", &tr)
}

// SignOut はユーザーの全セッションを認証サービス側で無効化する。
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, request{
		operation:   "auth.sign_out",
		method:      http.MethodPost,
		path:        "/auth/v1/logout",
		query:       url.Values{"scope": {"global"}},
		accessToken: accessToken,
	}, nil)
}

// Health は認証サービスの疎通を確認する。
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, request{
		operation: "auth.health",
		method:    http.MethodGet,
		path:      "/auth/v1/health",
	}, nil)
}

// validateToken はトークンレスポンスに必須項目が含まれるかを検証する。
func validateToken(operation string, tr *TokenResponse) (*TokenResponse, error) {
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%s: empty access token in response", operation)
	}
	if tr.RefreshToken == "" {
		return nil, fmt.Errorf("%s: empty refresh token in response", operation)
	}
	return tr, nil
}
