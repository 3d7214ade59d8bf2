package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/gqlboard/internal/metrics"
	"github.com/hitoshi/gqlboard/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// GraphQL
	Executor Executor

	// ヘルスチェック
	DB Pinger

	// メトリクス（nilの場合は/metricsを公開しない）
	Metrics  metrics.MetricsCollector
	Gatherer prometheus.Gatherer

	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	// TrustProxyHeaders がtrueの場合のみプロキシヘッダーからクライアントIPを設定する
	TrustProxyHeaders bool
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP(TrustProxyHeaders時のみ) → RequestID → Logging → Recovery → SecurityHeaders → CORS → RateLimit(GraphQLのみ)
//
// GraphQLエンドポイントは / と /graphql の両方で受け付ける。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	if deps.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// --- 運用系ルート（レート制限なし） ---
	healthHandler := NewHealthHandler(deps.DB)
	r.Get("/health", healthHandler.Check)

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- GraphQL ---
	gqlHandler := NewGraphQLHandler(deps.Executor, deps.Metrics, logger)
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}
		r.Handle("/", gqlHandler)
		r.Handle("/graphql", gqlHandler)
	})

	return r
}
