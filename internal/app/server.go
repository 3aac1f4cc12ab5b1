package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/classmate/internal/config"
	"github.com/hitoshi/classmate/internal/handler"
	"github.com/hitoshi/classmate/internal/metrics"
	"github.com/hitoshi/classmate/internal/middleware"
	"github.com/hitoshi/classmate/internal/security"
)

// Proxy は組み立て済みのプロキシ。Closeでバックグラウンド処理を停止する。
type Proxy struct {
	Handler http.Handler
	limiter *middleware.RateLimiter
}

// Close はレートリミッターのクリーンアップgoroutineを停止する。
func (p *Proxy) Close() {
	if p.limiter != nil {
		p.limiter.Stop()
	}
}

// NewProxy は設定からプロキシのルーターと依存関係を組み立てる。
// regがnilの場合は専用のレジストリを生成する。
func NewProxy(cfg *config.Config, reg *prometheus.Registry, logger *slog.Logger) (*Proxy, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	// 1. 上流クライアントの初期化
	var client *http.Client
	if cfg.UpstreamGuard {
		guard := security.NewUpstreamGuard()
		if err := guard.ValidateBaseURL(cfg.UpstreamBaseURL); err != nil {
			return nil, fmt.Errorf("invalid upstream base url: %w", err)
		}
		client = guard.NewClient(cfg.UpstreamTimeout)
	} else {
		logger.Warn("upstream guard is disabled")
		client = &http.Client{Timeout: cfg.UpstreamTimeout}
	}

	// 2. メトリクスと上流の初期化
	collector := metrics.NewCollector(reg)
	upstream := handler.NewUpstream(cfg.UpstreamBaseURL, client, collector, logger)

	if cfg.ServiceKey == "" {
		logger.Warn("CIS_API_KEY is not set; proxy routes will return 500 except like with x-cis-api-key")
	}

	// 3. ルーターの構築
	limiter := middleware.NewRateLimiter(middleware.PerMinuteRateLimiterConfig(cfg.RateLimitGeneral))
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            logger,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       limiter,
		ServiceKey:        cfg.ServiceKey,
		Proxy:             handler.NewProxyHandler(upstream, logger),
		MetricsGatherer:   reg,
	})

	return &Proxy{Handler: router, limiter: limiter}, nil
}

// runServe はプロキシサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するか、ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	proxy, err := NewProxy(cfg, nil, slog.Default())
	if err != nil {
		return err
	}
	defer proxy.Close()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      proxy.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("API proxy starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	select {
	case <-stop:
	case <-ctx.Done():
	case err := <-listenErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API proxy...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API proxy stopped gracefully")
	return nil
}
