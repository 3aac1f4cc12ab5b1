package model

// Status はステータスフィードの投稿を表す。
// LikeCountとHasLikedは上流が明示した値と未指定を区別するためにポインタで保持する。
type Status struct {
	ID        string      `json:"_id"`
	Content   string      `json:"content"`
	CreatedBy AuthorRef   `json:"createdBy"`
	Likes     []AuthorRef `json:"like,omitempty"`
	LikeCount *int        `json:"likeCount,omitempty"`
	HasLiked  *bool       `json:"hasLiked,omitempty"`
	Comments  []Comment   `json:"comment,omitempty"`
	CreatedAt string      `json:"createdAt,omitempty"`
	UpdatedAt string      `json:"updatedAt,omitempty"`
}

// Comment は投稿に対するコメントを表す。1つのStatusに所有される。
type Comment struct {
	ID        string      `json:"_id"`
	Content   string      `json:"content"`
	CreatedBy AuthorRef   `json:"createdBy"`
	Likes     []AuthorRef `json:"like,omitempty"`
	CreatedAt string      `json:"createdAt,omitempty"`
}

// TotalLikes はLikeCountの値を返す。未指定の場合はlikes配列の長さを返す。
func (s *Status) TotalLikes() int {
	if s.LikeCount != nil {
		return *s.LikeCount
	}
	return len(s.Likes)
}

// Liked はHasLikedの値を返す。未指定の場合はfalse。
func (s *Status) Liked() bool {
	return s.HasLiked != nil && *s.HasLiked
}

// Clone はスライスとポインタを複製したディープコピーを返す。
// 楽観的更新のロールバック用スナップショットに使う。
func (s Status) Clone() Status {
	out := s
	if s.Likes != nil {
		out.Likes = append([]AuthorRef(nil), s.Likes...)
	}
	if s.Comments != nil {
		out.Comments = make([]Comment, len(s.Comments))
		for i, c := range s.Comments {
			out.Comments[i] = c
			if c.Likes != nil {
				out.Comments[i].Likes = append([]AuthorRef(nil), c.Likes...)
			}
		}
	}
	if s.LikeCount != nil {
		n := *s.LikeCount
		out.LikeCount = &n
	}
	if s.HasLiked != nil {
		b := *s.HasLiked
		out.HasLiked = &b
	}
	return out
}

// StatusListResponse は GET /status のレスポンス。
type StatusListResponse struct {
	Data []Status `json:"data"`
}

// StatusMutationResponse は投稿・コメント・いいね操作のレスポンス。
// 上流がdataを返さない場合はnilになる。
type StatusMutationResponse struct {
	Data *Status `json:"data"`
}

// CreateStatusRequest は POST /status のリクエストボディ。
type CreateStatusRequest struct {
	Content string `json:"content"`
}

// CreateCommentRequest は POST /comment のリクエストボディ。
type CreateCommentRequest struct {
	Content  string `json:"content"`
	StatusID string `json:"statusId"`
}

// LikeAction はいいね操作の種類。
type LikeAction string

const (
	// LikeActionLike はいいねを付ける操作。
	LikeActionLike LikeAction = "like"
	// LikeActionUnlike はいいねを外す操作。
	LikeActionUnlike LikeAction = "unlike"
)

// LikeRequest は POST /api/classroom/like のリクエストボディ。
type LikeRequest struct {
	StatusID string     `json:"statusId"`
	Action   LikeAction `json:"action,omitempty"`
}
