// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError はプロキシが自ら生成するエラーの統一フォーマットを表す。
// 上流APIから中継するエラーはこの型を経由せず、上流の形のまま返す。
type APIError struct {
	Code    string // エラーコード
	Message string // エラーメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeConfiguration       = "CONFIGURATION_ERROR"
	ErrCodeUnauthenticated     = "UNAUTHENTICATED"
	ErrCodeUpstreamUnreachable = "UPSTREAM_UNREACHABLE"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// NewConfigurationError はサービスキー未設定エラーを生成する。
func NewConfigurationError() *APIError {
	return &APIError{
		Code:    ErrCodeConfiguration,
		Message: "CIS_API_KEY is not configured",
	}
}

// NewUnauthenticatedError はBearerトークン欠落エラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:    ErrCodeUnauthenticated,
		Message: "Authentication token is missing",
	}
}

// NewUpstreamUnreachableError は上流サービスへの到達失敗エラーを生成する。
// serviceには "authentication" や "like" など影響を受けたサービス名を渡す。
func NewUpstreamUnreachableError(service string) *APIError {
	return &APIError{
		Code:    ErrCodeUpstreamUnreachable,
		Message: fmt.Sprintf("Unable to reach %s service", service),
	}
}

// NewInvalidRequestError はリクエスト内容の不備を表すエラーを生成する。
func NewInvalidRequestError(message string) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidRequest,
		Message: message,
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:    ErrCodeRateLimited,
		Message: "Too many requests. Please try again later.",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
	}
}
