// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/classmate/internal/model"
)

// ServiceKeyHeader はlikeルートでサービスキーを上書きするためのリクエストヘッダー。
const ServiceKeyHeader = "x-cis-api-key"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	serviceKeyContextKey    = contextKey("service_key")
	authorizationContextKey = contextKey("authorization")
)

// NewServiceKeyMiddleware は上流に渡すサービスキーを解決してコンテキストに注入するミドルウェアを返す。
// allowOverrideがtrueの場合はx-cis-api-keyリクエストヘッダーを設定値より優先する。
// キーが解決できない場合は500 CONFIGURATION_ERRORを返す。
func NewServiceKeyMiddleware(configured string, allowOverride bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := configured
			if allowOverride {
				if v := strings.TrimSpace(r.Header.Get(ServiceKeyHeader)); v != "" {
					key = v
				}
			}

			if key == "" {
				slog.Error("service key is not configured",
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusInternalServerError, model.NewConfigurationError())
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithServiceKey(r.Context(), key)))
		})
	}
}

// NewBearerMiddleware はAuthorizationヘッダーの存在を検証するミドルウェアを返す。
// ヘッダーの値は検証せず、そのまま上流に転送するためコンテキストに保持する。
// 欠落している場合は401 UNAUTHENTICATEDを返す。
func NewBearerMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if authz == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithAuthorization(r.Context(), authz)))
		})
	}
}

// ServiceKeyFromContext はコンテキストからサービスキーを取得する。
func ServiceKeyFromContext(ctx context.Context) string {
	v, _ := ctx.Value(serviceKeyContextKey).(string)
	return v
}

// ContextWithServiceKey はコンテキストにサービスキーを注入する。
func ContextWithServiceKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, serviceKeyContextKey, key)
}

// AuthorizationFromContext はコンテキストから呼び出し元のAuthorizationヘッダー値を取得する。
func AuthorizationFromContext(ctx context.Context) string {
	v, _ := ctx.Value(authorizationContextKey).(string)
	return v
}

// ContextWithAuthorization はコンテキストにAuthorizationヘッダー値を注入する。
func ContextWithAuthorization(ctx context.Context, authz string) context.Context {
	return context.WithValue(ctx, authorizationContextKey, authz)
}
