package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/gqlboard/internal/config"
	"github.com/hitoshi/gqlboard/internal/database"
	"github.com/hitoshi/gqlboard/internal/graph"
	"github.com/hitoshi/gqlboard/internal/handler"
	"github.com/hitoshi/gqlboard/internal/metrics"
	"github.com/hitoshi/gqlboard/internal/middleware"
	"github.com/hitoshi/gqlboard/internal/repository"
)

// 起動時のDB疎通確認のタイムアウト
const startupPingTimeout = 5 * time.Second

// Server はGraphQLサーバーとその依存関係を保持する。
type Server struct {
	cfg         *config.Config
	logger      *slog.Logger
	sqlDB       *sql.DB
	router      http.Handler
	rateLimiter *middleware.RateLimiter
}

// NewServer はDB接続を開き、全依存関係をワイヤリングしたServerを返す。
// AUTO_MIGRATEが有効な場合は接続前にマイグレーションを適用する。
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// 1. マイグレーション（任意）
	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("auto migration failed: %w", err)
		}
		logger.Info("database migrations applied")
	}

	// 2. DB接続
	db, err := database.OpenGorm(cfg.DatabaseURL, database.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}

	// 疎通確認はctxのキャンセルに影響されずタイムアウトのみで打ち切る
	pingCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), startupPingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("database connection established",
		slog.String("dialect", db.Dialector.Name()),
	)

	// 3. GraphQLスキーマの構築
	schema, err := graph.NewSchema(repository.NewClient(db), logger)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	// 4. メトリクスの初期化
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.RegisterDBStats(reg, sqlDB, "gqlboard"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to register database metrics: %w", err)
	}
	collector := metrics.NewCollector(reg)

	// 5. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig(cfg.RateLimitPerMinute))

	router := handler.NewRouter(&handler.RouterDeps{
		Executor:          schema,
		DB:                sqlDB,
		Metrics:           collector,
		Gatherer:          reg,
		Logger:            logger,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	return &Server{
		cfg:         cfg,
		logger:      logger,
		sqlDB:       sqlDB,
		router:      router,
		rateLimiter: rateLimiter,
	}, nil
}

// Handler はルーティング済みのHTTPハンドラーを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve はlnでHTTPリクエストの受け付けを開始し、ctxがキャンセルされるまでブロックする。
// キャンセル後はSHUTDOWN_TIMEOUTを上限にグレースフルシャットダウンを行う。
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	s.logger.Info("server ready",
		slog.String("url", serverURL(ln.Addr())),
	)

	select {
	case err := <-errCh:
		if isServerClosed(err) {
			return nil
		}
		return fmt.Errorf("server listen error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	<-errCh

	s.logger.Info("server stopped gracefully")
	return nil
}

// Close はレートリミッターとDB接続を解放する。
func (s *Server) Close() error {
	s.rateLimiter.Stop()
	return s.sqlDB.Close()
}

// serverURL は待ち受けアドレスから利用者向けのURLを組み立てる。
func serverURL(addr net.Addr) string {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return fmt.Sprintf("http://localhost:%d/", tcp.Port)
	}
	return "http://" + addr.String() + "/"
}
