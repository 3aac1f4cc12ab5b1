// Package handler は上流の教室APIへ転送するプロキシのHTTPハンドラーを提供する。
package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/classmate/internal/metrics"
	"github.com/hitoshi/classmate/internal/middleware"
)

// maxUpstreamResponseSize は上流レスポンスとして読み込む最大サイズ。
const maxUpstreamResponseSize = 10 << 20

// errUpstreamResponseTooLarge は上流レスポンスが上限を超えた場合のエラー。
// 切り詰めたボディは中継しない。
var errUpstreamResponseTooLarge = errors.New("upstream response exceeds size limit")

// upstreamCall は上流への1回分のリクエスト内容。
type upstreamCall struct {
	service string // エラーメッセージとメトリクスに使うサービス名
	method  string
	path    string // クエリ文字列を含む
	body    []byte // nilの場合はボディを送らない
	auth    bool   // 呼び出し元のAuthorizationヘッダーを転送するか
}

// upstreamResult は上流のレスポンス。
type upstreamResult struct {
	status int
	body   []byte
}

// Upstream は上流の教室APIへリクエストを転送するクライアント。
type Upstream struct {
	baseURL  string
	client   *http.Client
	recorder metrics.UpstreamRecorder
	logger   *slog.Logger
	maxBody  int64
}

// NewUpstream はUpstreamを生成する。
// recorderとloggerはnilの場合に何もしない実装・デフォルトロガーで補う。
func NewUpstream(baseURL string, client *http.Client, recorder metrics.UpstreamRecorder, logger *slog.Logger) *Upstream {
	if client == nil {
		client = http.DefaultClient
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Upstream{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		recorder: recorder,
		logger:   logger,
		maxBody:  maxUpstreamResponseSize,
	}
}

// do は上流にリクエストを送り、レスポンスのステータスとボディを返す。
// サービスキーと呼び出し元のAuthorizationはコンテキストから取得する。
// 上流に到達できなかった場合と、レスポンスを上限内で読み切れなかった場合にエラーを返す。
func (u *Upstream) do(ctx context.Context, call upstreamCall) (*upstreamResult, error) {
	var body io.Reader
	if call.body != nil {
		body = bytes.NewReader(call.body)
	}

	req, err := http.NewRequestWithContext(ctx, call.method, u.baseURL+call.path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", middleware.ServiceKeyFromContext(ctx))
	if call.auth {
		if authz := middleware.AuthorizationFromContext(ctx); authz != "" {
			req.Header.Set("Authorization", authz)
		}
	}

	start := time.Now()
	resp, err := u.client.Do(req)
	u.recorder.RecordUpstreamLatency(call.service, time.Since(start))
	if err != nil {
		u.recorder.RecordUpstreamFailure(call.service)
		u.logger.Error("failed to reach upstream",
			slog.String("service", call.service),
			slog.String("method", call.method),
			slog.String("path", call.path),
			slog.String("request_id", middleware.RequestIDFromContext(ctx)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, u.maxBody+1))
	if err == nil && int64(len(raw)) > u.maxBody {
		err = errUpstreamResponseTooLarge
	}
	if err != nil {
		u.recorder.RecordUpstreamFailure(call.service)
		u.logger.Error("failed to read upstream response",
			slog.String("service", call.service),
			slog.Int("status", resp.StatusCode),
			slog.Int64("limit", u.maxBody),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	u.recorder.RecordUpstreamStatus(call.service, resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		u.logger.Warn("upstream returned error status",
			slog.String("service", call.service),
			slog.String("method", call.method),
			slog.String("path", call.path),
			slog.Int("status", resp.StatusCode),
			slog.String("request_id", middleware.RequestIDFromContext(ctx)),
		)
	}

	return &upstreamResult{status: resp.StatusCode, body: raw}, nil
}
