package apiclient

import (
	"errors"
	"fmt"
)

// Kind はクライアントエラーの分類。
type Kind string

const (
	// KindNetworkUnreachable は通信自体に失敗したことを表す（Statusは0）。
	KindNetworkUnreachable Kind = "network_unreachable"
	// KindUpstream はサーバーが2xx以外を返したことを表す。
	KindUpstream Kind = "upstream"
	// KindDecode は成功レスポンスを期待する型にデコードできなかったことを表す。
	KindDecode Kind = "decode"
)

// Error はUI層に渡す統一エラー値。
type Error struct {
	Status  int
	Kind    Kind
	Message string
	// Details はパース済みのレスポンスボディ。JSONでなかった場合はnil。
	Details []byte
	Err     error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// Unwrap は原因エラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// AsError はerrからError を取り出す。
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNetworkUnreachable は通信失敗エラーかを判定する。
func IsNetworkUnreachable(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindNetworkUnreachable
}

// StatusOf はエラーのHTTPステータスを返す。Errorでない場合は-1。
func StatusOf(err error) int {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Status
	}
	return -1
}
