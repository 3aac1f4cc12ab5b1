package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/classmate/internal/middleware"
	"github.com/hitoshi/classmate/internal/model"
)

// maxRequestBodySize は転送するリクエストボディの最大サイズ。
const maxRequestBodySize = 1 << 20

// 上流のパス
const (
	upstreamSignIn  = "/signin"
	upstreamProfile = "/profile"
	upstreamStatus  = "/status"
	upstreamComment = "/comment"
	upstreamLike    = "/like"
	upstreamUnlike  = "/unlike"
	upstreamClass   = "/class"
)

// ProxyHandler は教室APIのプロキシエンドポイント。
// サービスキーとAuthorizationの検証はミドルウェアで行い、ここでは転送と中継のみを行う。
type ProxyHandler struct {
	upstream *Upstream
	logger   *slog.Logger
}

// NewProxyHandler はProxyHandlerを生成する。
func NewProxyHandler(upstream *Upstream, logger *slog.Logger) *ProxyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProxyHandler{upstream: upstream, logger: logger}
}

// SignIn はサインインを転送する。
// POST /api/auth/signin
func (h *ProxyHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.readBody(w, r)
	if !ok {
		return
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Invalid JSON body"))
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	h.forward(w, r, upstreamCall{
		service: "authentication",
		method:  http.MethodPost,
		path:    upstreamSignIn,
		body:    body,
	})
}

// Profile はプロフィール取得を転送する。
// GET /api/classroom/profile
func (h *ProxyHandler) Profile(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, upstreamCall{
		service: "profile",
		method:  http.MethodGet,
		path:    upstreamProfile,
		auth:    true,
	})
}

// ListStatuses はステータス一覧の取得を転送する。
// GET /api/classroom/status
func (h *ProxyHandler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, upstreamCall{
		service: "status",
		method:  http.MethodGet,
		path:    upstreamStatus,
		auth:    true,
	})
}

// CreateStatus はステータス投稿を転送する。ボディは加工せずに転送する。
// POST /api/classroom/status
func (h *ProxyHandler) CreateStatus(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	h.forward(w, r, upstreamCall{
		service: "status",
		method:  http.MethodPost,
		path:    upstreamStatus,
		body:    body,
		auth:    true,
	})
}

// CreateComment はコメント投稿を転送する。ボディは加工せずに転送する。
// POST /api/classroom/comment
func (h *ProxyHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	h.forward(w, r, upstreamCall{
		service: "comment",
		method:  http.MethodPost,
		path:    upstreamComment,
		body:    body,
		auth:    true,
	})
}

// ClassMembers はクラス名簿の取得を転送する。クエリ文字列はそのまま引き継ぐ。
// GET /api/classroom/class?year=
func (h *ProxyHandler) ClassMembers(w http.ResponseWriter, r *http.Request) {
	path := upstreamClass
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}
	h.forward(w, r, upstreamCall{
		service: "class",
		method:  http.MethodGet,
		path:    path,
		auth:    true,
	})
}

// Like はいいね・いいね解除を転送する。
// 上流には {"statusId": ...} のみを送る。action が "unlike" の場合は DELETE /like を送り、
// 404または405が返った場合に限り POST /unlike を1回だけ試す。
// POST /api/classroom/like
func (h *ProxyHandler) Like(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.readBody(w, r)
	if !ok {
		return
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Invalid JSON body"))
		return
	}

	fields, _ := payload.(map[string]any)
	statusID, _ := fields["statusId"].(string)
	if statusID == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("statusId is required"))
		return
	}
	action, _ := fields["action"].(string)

	body, err := json.Marshal(model.LikeRequest{StatusID: statusID})
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	call := upstreamCall{
		service: "like",
		method:  http.MethodPost,
		path:    upstreamLike,
		body:    body,
		auth:    true,
	}
	unlike := action == string(model.LikeActionUnlike)
	if unlike {
		call.method = http.MethodDelete
	}

	res, err := h.upstream.do(r.Context(), call)
	if err != nil {
		writeUnreachable(w, call.service)
		return
	}

	if unlike && (res.status == http.StatusNotFound || res.status == http.StatusMethodNotAllowed) {
		h.upstream.recorder.RecordUnlikeFallback()
		h.logger.Info("falling back to POST /unlike",
			slog.String("status_id", statusID),
			slog.Int("delete_status", res.status),
		)

		call.method = http.MethodPost
		call.path = upstreamUnlike
		res, err = h.upstream.do(r.Context(), call)
		if err != nil {
			writeUnreachable(w, call.service)
			return
		}
	}

	relay(w, res)
}

// forward は上流へ転送し、結果を中継する。
func (h *ProxyHandler) forward(w http.ResponseWriter, r *http.Request, call upstreamCall) {
	res, err := h.upstream.do(r.Context(), call)
	if err != nil {
		writeUnreachable(w, call.service)
		return
	}
	relay(w, res)
}

// readBody はリクエストボディを読み込む。失敗時はエラーレスポンスを書き込みfalseを返す。
func (h *ProxyHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteErrorResponse(w, http.StatusRequestEntityTooLarge, model.NewInvalidRequestError("Request body is too large"))
			return nil, false
		}
		h.logger.Warn("failed to read request body",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("Unable to read request body"))
		return nil, false
	}
	return raw, true
}

func writeUnreachable(w http.ResponseWriter, service string) {
	middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewUpstreamUnreachableError(service))
}
