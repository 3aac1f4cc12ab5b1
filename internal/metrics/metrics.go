// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UpstreamRecorder は上流API呼び出しのメトリクス記録インターフェース。
// プロキシハンドラーから利用する。endpointには "signin" や "like" などのサービス名を渡す。
type UpstreamRecorder interface {
	RecordUpstreamStatus(endpoint string, statusCode int)
	RecordUpstreamFailure(endpoint string)
	RecordUpstreamLatency(endpoint string, duration time.Duration)
	RecordUnlikeFallback()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	upstreamStatus  *prometheus.CounterVec
	upstreamFail    *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	unlikeFallback  prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classmate_upstream_responses_total",
			Help: "上流APIのエンドポイント・ステータスコード別レスポンス数",
		}, []string{"endpoint", "status_code"}),
		upstreamFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classmate_upstream_failures_total",
			Help: "上流APIに到達できなかったリクエスト数",
		}, []string{"endpoint"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "classmate_upstream_latency_seconds",
			Help:    "上流API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		unlikeFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "classmate_unlike_fallback_total",
			Help: "DELETE /like が拒否され POST /unlike にフォールバックした回数",
		}),
	}

	reg.MustRegister(
		c.upstreamStatus,
		c.upstreamFail,
		c.upstreamLatency,
		c.unlikeFallback,
	)

	return c
}

// RecordUpstreamStatus は上流のレスポンスステータスを記録する。
func (c *Collector) RecordUpstreamStatus(endpoint string, statusCode int) {
	c.upstreamStatus.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
}

// RecordUpstreamFailure は上流への到達失敗を記録する。
func (c *Collector) RecordUpstreamFailure(endpoint string) {
	c.upstreamFail.WithLabelValues(endpoint).Inc()
}

// RecordUpstreamLatency は上流呼び出しのレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(endpoint string, duration time.Duration) {
	c.upstreamLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordUnlikeFallback はunlikeのフォールバック発生を記録する。
func (c *Collector) RecordUnlikeFallback() {
	c.unlikeFallback.Inc()
}

// Nop は何も記録しないUpstreamRecorder。
type Nop struct{}

func (Nop) RecordUpstreamStatus(string, int)            {}
func (Nop) RecordUpstreamFailure(string)                {}
func (Nop) RecordUpstreamLatency(string, time.Duration) {}
func (Nop) RecordUnlikeFallback()                       {}

var (
	_ UpstreamRecorder = (*Collector)(nil)
	_ UpstreamRecorder = Nop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
