// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// BackendClientConfig はバックエンド向けHTTPクライアントの設定。
type BackendClientConfig struct {
	// BaseURL はバックエンドのベースURL。ホスト・ポート・スキームはこのURLのものだけを許可する。
	BaseURL string
	Timeout time.Duration
	// AllowedIPs はプライベートアドレスでも接続を許可するIP。
	// ローカルで起動したバックエンドに接続する場合に127.0.0.1などを指定する。
	AllowedIPs []string
}

// NewBackendHTTPClient はバックエンドのホスト以外へ接続しないHTTPクライアントを生成する。
// safeurlがDNS解決後のIPアドレスも検証するため、
// プライベートIP・ループバック・メタデータIPへの接続はAllowedIPsで許可しない限りブロックされる。
func NewBackendHTTPClient(cfg BackendClientConfig) (*http.Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("disallowed scheme: %q", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("empty host in backend URL: %s", cfg.BaseURL)
	}

	port, err := portOf(u)
	if err != nil {
		return nil, err
	}

	builder := safeurl.GetConfigBuilder().
		SetTimeout(cfg.Timeout).
		SetAllowedSchemes(scheme).
		SetAllowedPorts(port).
		SetAllowedHosts(host)
	if len(cfg.AllowedIPs) > 0 {
		builder = builder.SetAllowedIPs(cfg.AllowedIPs...)
	}

	wrapped := safeurl.Client(builder.Build())
	return wrapped.Client, nil
}

// portOf はURLの明示ポート、なければスキームの既定ポートを返す。
func portOf(u *url.URL) (int, error) {
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return 0, fmt.Errorf("invalid port in backend URL: %q", p)
		}
		return n, nil
	}
	if strings.EqualFold(u.Scheme, "https") {
		return 443, nil
	}
	return 80, nil
}

// ParseIPList はカンマ区切りのIPリストを分割する。空要素は無視する。
func ParseIPList(s string) []string {
	var ips []string
	for _, part := range strings.Split(s, ",") {
		if ip := strings.TrimSpace(part); ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}
