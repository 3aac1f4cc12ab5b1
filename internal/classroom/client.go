// Package classroom はクラスルームAPIの型付き呼び出しを提供する。
// すべての呼び出しはローカルプロキシ経由で行う。
package classroom

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hitoshi/classmate/internal/apiclient"
	"github.com/hitoshi/classmate/internal/model"
)

// プロキシ上のパス
const (
	pathSignIn  = "/auth/signin"
	pathProfile = "/classroom/profile"
	pathStatus  = "/classroom/status"
	pathComment = "/classroom/comment"
	pathLike    = "/classroom/like"
	pathClass   = "/classroom/class"
)

// Client はクラスルームAPIのクライアント。
type Client struct {
	api *apiclient.Client
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

// SignIn はメールアドレスとパスワードでサインインし、プロフィールとトークンを返す。
// Bearerトークンは付与しない。
func (c *Client) SignIn(ctx context.Context, email, password string) (model.SignInData, error) {
	resp, err := apiclient.Call[model.SignInResponse](ctx, c.api, apiclient.Request{
		Path:     pathSignIn,
		Method:   http.MethodPost,
		SkipAuth: true,
		Body:     model.SignInRequest{Email: email, Password: password},
	})
	if err != nil {
		return model.SignInData{}, err
	}
	return resp.Data, nil
}

// Profile はサインイン中ユーザーの詳細プロフィールを取得する。
// educationが欠落している場合は空のオブジェクトで補う。
func (c *Client) Profile(ctx context.Context) (model.ProfileDetail, error) {
	resp, err := apiclient.Call[model.ProfileResponse](ctx, c.api, apiclient.Request{
		Path: pathProfile,
	})
	if err != nil {
		return model.ProfileDetail{}, err
	}
	if resp.Data.Education == nil {
		resp.Data.Education = &model.Education{}
	}
	return resp.Data, nil
}

// ListStatuses はステータスフィードを取得する。
func (c *Client) ListStatuses(ctx context.Context) ([]model.Status, error) {
	resp, err := apiclient.Call[model.StatusListResponse](ctx, c.api, apiclient.Request{
		Path: pathStatus,
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CreateStatus はステータスを投稿する。上流がdataを返さない場合はnilを返す。
func (c *Client) CreateStatus(ctx context.Context, content string) (*model.Status, error) {
	return c.mutate(ctx, pathStatus, model.CreateStatusRequest{Content: content})
}

// CreateComment はステータスにコメントを追加する。
// 上流は更新後のステータス全体を返す（作者はID形式の場合がある）。
func (c *Client) CreateComment(ctx context.Context, statusID, content string) (*model.Status, error) {
	return c.mutate(ctx, pathComment, model.CreateCommentRequest{Content: content, StatusID: statusID})
}

// SetLike はステータスのいいねを付ける、または外す。
func (c *Client) SetLike(ctx context.Context, statusID string, action model.LikeAction) (*model.Status, error) {
	return c.mutate(ctx, pathLike, model.LikeRequest{StatusID: statusID, Action: action})
}

// ClassMembers は指定入学年度の名簿を取得する。
func (c *Client) ClassMembers(ctx context.Context, year int) ([]model.Member, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))

	resp, err := apiclient.Call[model.MembersResponse](ctx, c.api, apiclient.Request{
		Path: pathClass + "?" + q.Encode(),
	})
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []model.Member{}, nil
	}
	return resp.Data, nil
}

func (c *Client) mutate(ctx context.Context, path string, body any) (*model.Status, error) {
	resp, err := apiclient.Call[model.StatusMutationResponse](ctx, c.api, apiclient.Request{
		Path:   path,
		Method: http.MethodPost,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}
