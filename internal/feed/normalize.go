package feed

import (
	"strconv"

	"github.com/hitoshi/classmate/internal/model"
)

// Viewer はフィードを閲覧しているユーザー。いいね済み判定に使う。
type Viewer struct {
	ID    string
	Email string
}

// Normalize はステータスの派生フィールドを確定させる。
//   - likeCount: 上流の明示値を優先し、無ければlikes配列の長さ（負の値は0に丸める）
//   - hasLiked: 上流がtrueを明示していればtrue、それ以外はlikesに閲覧者が含まれるか
//   - likes / comments: 欠落時は空スライス
//
// 正規化済みの値に再度適用しても結果は変わらない。
func Normalize(s model.Status, v Viewer) model.Status {
	out := s

	if out.Likes == nil {
		out.Likes = []model.AuthorRef{}
	}
	if out.Comments == nil {
		out.Comments = []model.Comment{}
	}

	count := len(out.Likes)
	if s.LikeCount != nil {
		count = *s.LikeCount
	}
	if count < 0 {
		count = 0
	}
	out.LikeCount = &count

	liked := s.HasLiked != nil && *s.HasLiked
	if !liked {
		liked = containsViewer(out.Likes, v)
	}
	out.HasLiked = &liked

	return out
}

func containsViewer(likes []model.AuthorRef, v Viewer) bool {
	for _, l := range likes {
		if l.MatchesUser(v.ID, v.Email) {
			return true
		}
	}
	return false
}

// Toggled はいいね状態を反転した楽観的更新用のステータスを返す。
// hasLikedを反転し、likeCountを±1する。likes配列にも閲覧者を追加・除去し、
// 正規化後も反転した状態が保たれるようにする。
func Toggled(s model.Status, v Viewer) model.Status {
	cur := Normalize(s.Clone(), v)
	liked := *cur.HasLiked
	count := *cur.LikeCount

	if liked {
		count--
		kept := make([]model.AuthorRef, 0, len(cur.Likes))
		for _, l := range cur.Likes {
			if !l.MatchesUser(v.ID, v.Email) {
				kept = append(kept, l)
			}
		}
		cur.Likes = kept
	} else {
		count++
		if v.ID != "" {
			cur.Likes = append(cur.Likes, model.IdentifierRef(v.ID))
		} else if v.Email != "" {
			cur.Likes = append(cur.Likes, model.IdentifierRef(v.Email))
		}
	}
	if count < 0 {
		count = 0
	}

	next := !liked
	cur.LikeCount = &count
	cur.HasLiked = &next
	return cur
}

// LikeLabel はいいね数の表示用ラベルを返す。
func LikeLabel(count int) string {
	switch {
	case count <= 0:
		return "no likes yet"
	case count == 1:
		return "1 like"
	default:
		return strconv.Itoa(count) + " likes"
	}
}
