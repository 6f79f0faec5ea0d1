// Package backend はマネージドバックエンド（認証・DB行・オブジェクトストレージ）の
// HTTP APIクライアントを提供する。
// クライアントはアプリケーション起動時に1回生成し、必要なサービスへ注入する。
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Observer はバックエンド呼び出しの計測を受け取るインターフェース。
// metrics.Collectorが実装する。
type Observer interface {
	ObserveBackendCall(operation, outcome string, duration time.Duration)
}

// Config はバックエンドクライアントの設定。
type Config struct {
	BaseURL    string // 例: https://xyzcompany.supabase.co
	AnonKey    string // 公開APIキー（apikeyヘッダー）
	HTTPClient *http.Client
	Observer   Observer
}

// maxResponseBytes はレスポンスボディを読み込む上限。
const maxResponseBytes = 4 << 20

// Client はバックエンドAPIのクライアント。
type Client struct {
	baseURL     *url.URL
	anonKey     string
	httpClient  *http.Client
	observer    Observer
	maxResponse int64
}

// NewClient はClientを生成する。
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("backend anon key is required")
	}

	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend base URL: %s", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		baseURL:     u,
		anonKey:     cfg.AnonKey,
		httpClient:  httpClient,
		observer:    cfg.Observer,
		maxResponse: maxResponseBytes,
	}, nil
}

// request は1回のAPI呼び出しを表す。
type request struct {
	operation   string
	method      string
	path        string
	query       url.Values
	accessToken string
	header      http.Header
	body        io.Reader
	jsonBody    any
}

// endpoint はパスとクエリから完全なURLを組み立てる。
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do はリクエストを実行し、成功時はレスポンスJSONをoutにデコードする。
// 2xx以外のレスポンスは*Errorとして返す。outがnilの場合はボディを読み捨てる。
func (c *Client) do(ctx context.Context, req request, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveBackendCall(req.operation, outcomeOf(err), time.Since(start))
		}
	}()

	body := req.body
	if req.jsonBody != nil {
		b, err := json.Marshal(req.jsonBody)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request body: %w", req.operation, err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.endpoint(req.path, req.query), body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", req.operation, err)
	}

	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.jsonBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("apikey", c.anonKey)
	token := req.accessToken
	if token == "" {
		token = c.anonKey
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", req.operation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponse+1))
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", req.operation, err)
	}
	if int64(len(respBody)) > c.maxResponse {
		return fmt.Errorf("%s: response body exceeds %d bytes", req.operation, c.maxResponse)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(req.operation, resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: failed to parse response: %w", req.operation, err)
	}
	return nil
}

// outcomeOf はメトリクス用の結果ラベルを返す。
func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	if e, ok := AsError(err); ok {
		if e.Status >= 500 {
			return "server_error"
		}
		return "client_error"
	}
	return "transport_error"
}
