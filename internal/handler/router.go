package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/classmate/internal/metrics"
	"github.com/hitoshi/classmate/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter // nilの場合はレート制限なし

	// サービスキー（CIS_API_KEY）。空の場合、likeルート以外は500を返す
	ServiceKey string

	// プロキシ
	Proxy *ProxyHandler

	// メトリクス。nilの場合は/metricsを公開しない
	MetricsGatherer prometheus.Gatherer
}

// NewRouter はプロキシの全エンドポイントとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → SecurityHeaders → CORS → RateLimit
//	→ ServiceKey → Bearer（サインイン以外）
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// --- 運用エンドポイント ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	serviceKey := middleware.NewServiceKeyMiddleware(deps.ServiceKey, false)
	likeServiceKey := middleware.NewServiceKeyMiddleware(deps.ServiceKey, true)
	bearer := middleware.NewBearerMiddleware()
	p := deps.Proxy

	// --- プロキシエンドポイント ---
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		r.With(serviceKey).Post("/api/auth/signin", p.SignIn)

		r.Route("/api/classroom", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(serviceKey, bearer)

				r.Get("/profile", p.Profile)
				r.Get("/status", p.ListStatuses)
				r.Post("/status", p.CreateStatus)
				r.Post("/comment", p.CreateComment)
				r.Get("/class", p.ClassMembers)
			})

			// likeのみx-cis-api-keyヘッダーによるキーの上書きを受け付ける
			r.With(likeServiceKey, bearer).Post("/like", p.Like)
		})
	})

	return r
}
