// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// GraphQLハンドラーやミドルウェアから利用する。
type MetricsCollector interface {
	RecordOperation(operationType string)
	RecordOperationErrors(operationType string, count int)
	RecordHTTPStatus(statusCode int)
	RecordLatency(operationType string, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	operations      *prometheus.CounterVec
	operationErrors *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
// operation_typeラベルはquery、mutation、unknownのいずれかに限定する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gqlboard_graphql_operations_total",
			Help: "実行されたGraphQL操作の合計数",
		}, []string{"operation_type"}),
		operationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gqlboard_graphql_errors_total",
			Help: "GraphQLレスポンスに含まれたエラーの合計数",
		}, []string{"operation_type"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gqlboard_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gqlboard_graphql_latency_seconds",
			Help:    "GraphQL操作の実行時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation_type"}),
	}

	reg.MustRegister(
		c.operations,
		c.operationErrors,
		c.httpStatus,
		c.latency,
	)

	return c
}

// RecordOperation はGraphQL操作の実行を記録する。
func (c *Collector) RecordOperation(operationType string) {
	c.operations.WithLabelValues(operationType).Inc()
}

// RecordOperationErrors はGraphQLレスポンスのエラー数を記録する。
func (c *Collector) RecordOperationErrors(operationType string, count int) {
	if count <= 0 {
		return
	}
	c.operationErrors.WithLabelValues(operationType).Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordLatency はGraphQL操作の実行時間を記録する。
func (c *Collector) RecordLatency(operationType string, duration time.Duration) {
	c.latency.WithLabelValues(operationType).Observe(duration.Seconds())
}

// RegisterDBStats はコネクションプールの統計をレジストリに登録する。
func RegisterDBStats(reg prometheus.Registerer, db *sql.DB, dbName string) error {
	return reg.Register(collectors.NewDBStatsCollector(db, dbName))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
