package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/bie/internal/model"
)

// accessClaims は認証サービスが発行するアクセストークンのクレーム。
type accessClaims struct {
	Email        string             `json:"email"`
	UserMetadata model.UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

// TokenParser はアクセストークンから利用者の識別情報を取り出す。
// 秘密鍵が設定されている場合はHS256署名を検証する。
// 有効期限の判定はリフレッシュ処理で行うため、ここではexpを検証しない。
type TokenParser struct {
	secret []byte
}

// NewTokenParser はTokenParserを生成する。secretが空の場合は署名を検証しない。
func NewTokenParser(secret string) *TokenParser {
	p := &TokenParser{}
	if secret != "" {
		p.secret = []byte(secret)
	}
	return p
}

// ParsedToken はトークンから得た情報。
type ParsedToken struct {
	User      model.AuthUser
	ExpiresAt time.Time // expクレームがない場合はゼロ値
}

// Parse はアクセストークンを解析する。
func (p *TokenParser) Parse(token string) (*ParsedToken, error) {
	if token == "" {
		return nil, errors.New("empty access token")
	}

	var claims accessClaims
	if p.secret != nil {
		_, err := jwt.ParseWithClaims(token, &claims,
			func(t *jwt.Token) (interface{}, error) { return p.secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to verify access token: %w", err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
			return nil, fmt.Errorf("failed to decode access token: %w", err)
		}
	}

	if claims.Subject == "" {
		return nil, errors.New("access token has no subject")
	}

	pt := &ParsedToken{
		User: model.AuthUser{
			ID:       claims.Subject,
			Email:    claims.Email,
			Metadata: claims.UserMetadata,
		},
	}
	if claims.ExpiresAt != nil {
		pt.ExpiresAt = claims.ExpiresAt.Time
	}
	return pt, nil
}
