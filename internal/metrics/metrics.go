// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// backend.Observer、auth.EventRecorder、profile.UploadRecorder、
// middleware.StatusRecorderを満たす。
type Collector struct {
	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	httpStatus      *prometheus.CounterVec
	avatarUploads   *prometheus.CounterVec
	authEvents      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bie_backend_requests_total",
			Help: "バックエンドAPI呼び出しの操作別・結果別の合計数",
		}, []string{"operation", "outcome"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bie_backend_request_duration_seconds",
			Help:    "バックエンドAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bie_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		avatarUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bie_avatar_uploads_total",
			Help: "アバターアップロードの結果別の合計数",
		}, []string{"outcome"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bie_auth_events_total",
			Help: "認証イベント別の合計数",
		}, []string{"event"}),
	}

	reg.MustRegister(
		c.backendRequests,
		c.backendLatency,
		c.httpStatus,
		c.avatarUploads,
		c.authEvents,
	)

	return c
}

// ObserveBackendCall はバックエンド呼び出しの結果とレイテンシを記録する。
func (c *Collector) ObserveBackendCall(operation, outcome string, duration time.Duration) {
	c.backendRequests.WithLabelValues(operation, outcome).Inc()
	c.backendLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordAvatarUpload はアバターアップロードの結果を記録する。
func (c *Collector) RecordAvatarUpload(outcome string) {
	c.avatarUploads.WithLabelValues(outcome).Inc()
}

// RecordAuthEvent は認証イベントを記録する。
func (c *Collector) RecordAuthEvent(event string) {
	c.authEvents.WithLabelValues(event).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
