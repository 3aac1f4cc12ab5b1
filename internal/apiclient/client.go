// Package apiclient はプロキシおよび上流APIへのすべての送信リクエストの窓口を提供する。
// 認証ヘッダーの付与、ボディのシリアライズ、エラー形式の正規化を行う。
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/hitoshi/classmate/internal/endpoint"
)

const (
	headerServiceKeyUpstream = "x-api-key"
	headerServiceKeyProxy    = "x-cis-api-key"
)

// Credentials はリクエストに付与する資格情報の取得元。
// credential.Managerが実装する。
type Credentials interface {
	Token(ctx context.Context) string
	ServiceKey(ctx context.Context) string
}

// RawBody はシリアライズせずにそのまま送信するボディ。
type RawBody []byte

// Request は1回のAPI呼び出しを表す。
type Request struct {
	Path   string
	Method string // 空の場合はGET
	Target endpoint.Target
	// SkipAuth がtrueの場合はBearerトークンを付与しない。
	SkipAuth bool
	// Body はRawBody・[]byte・string・io.Readerの場合そのまま送信し、
	// それ以外の値はJSONにエンコードする。
	Body   any
	Header http.Header
}

// Client はAPIクライアント。
type Client struct {
	httpClient *http.Client
	resolver   endpoint.Resolver
	creds      Credentials
	logger     *slog.Logger
}

// NewHTTPClient はCookieJar付きのhttp.Clientを生成する。
// timeoutが0の場合はトランスポートのデフォルトに任せる。
func NewHTTPClient(timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &http.Client{Timeout: timeout, Jar: jar}, nil
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, resolver endpoint.Resolver, creds Credentials, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		resolver:   resolver,
		creds:      creds,
		logger:     logger,
	}
}

// Do はリクエストを送信し、パース済みのJSONボディを返す。
// ボディが空またはJSONでない場合は "{}" を返す。
// 通信失敗はKindNetworkUnreachable、2xx以外はKindUpstreamの*Errorになる。再試行は行わない。
func (c *Client) Do(ctx context.Context, r Request) (json.RawMessage, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	target := r.Target
	if target == "" {
		target = endpoint.TargetProxy
	}
	url := c.resolver.URL(target, r.Path)

	// 1. ボディの組み立て
	body, isJSON, err := encodeBody(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// 2. ヘッダーの付与
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if isJSON {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds != nil {
		if key := c.creds.ServiceKey(ctx); key != "" {
			req.Header.Set(serviceKeyHeader(target), key)
		}
		if !r.SkipAuth {
			if token := c.creds.Token(ctx); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}
	}

	// 3. 送信
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed before a response was received",
			slog.String("method", method),
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		return nil, &Error{
			Status:  0,
			Kind:    KindNetworkUnreachable,
			Message: "Unable to reach the server",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	// 4. JSONレスポンスのみパースする
	payload := readJSONPayload(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Status:  resp.StatusCode,
			Kind:    KindUpstream,
			Message: messageFrom(payload, resp.StatusCode),
			Details: payload,
		}
	}

	if payload == nil {
		return json.RawMessage("{}"), nil
	}
	return payload, nil
}

// Call はDoを実行し、結果をTにデコードして返す。
func Call[T any](ctx context.Context, c *Client, r Request) (T, error) {
	var out T
	raw, err := c.Do(ctx, r)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &Error{
			Status:  http.StatusOK,
			Kind:    KindDecode,
			Message: "unexpected response shape",
			Details: raw,
			Err:     err,
		}
	}
	return out, nil
}

func serviceKeyHeader(target endpoint.Target) string {
	if target == endpoint.TargetUpstream {
		return headerServiceKeyUpstream
	}
	return headerServiceKeyProxy
}

// encodeBody はボディを送信用のio.Readerに変換する。
// JSONにエンコードした場合はisJSONがtrueになる。
func encodeBody(body any) (io.Reader, bool, error) {
	switch b := body.(type) {
	case nil:
		return nil, false, nil
	case RawBody:
		return bytes.NewReader(b), false, nil
	case []byte:
		return bytes.NewReader(b), false, nil
	case string:
		return strings.NewReader(b), false, nil
	case io.Reader:
		return b, false, nil
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, false, err
		}
		return bytes.NewReader(encoded), true, nil
	}
}

// readJSONPayload はContent-TypeがJSONの場合のみボディを読み取って返す。
// 読み取りやパースに失敗した場合やnullの場合はnilを返す。
func readJSONPayload(resp *http.Response) json.RawMessage {
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || !json.Valid(data) || bytes.Equal(data, []byte("null")) {
		return nil
	}
	return json.RawMessage(data)
}

// messageFrom はボディのmessageフィールドを返す。無ければステータステキスト。
func messageFrom(payload json.RawMessage, status int) string {
	if payload != nil {
		var body struct {
			Message *string `json:"message"`
		}
		if err := json.Unmarshal(payload, &body); err == nil && body.Message != nil {
			return *body.Message
		}
	}
	return http.StatusText(status)
}
