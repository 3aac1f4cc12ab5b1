package feed

import "github.com/hitoshi/classmate/internal/model"

// WithPreservedAuthors は新しいステータスの作者参照のうちID形式に劣化したものを、
// 以前にキャッシュしていた同一エンティティの埋め込み形式で置き換える。
// コメント作成APIなどは作者をID形式で返すが、フィード全件取得は埋め込み形式で返すため、
// 部分更新のたびに表示が劣化しないようにする。
// prevがnilの場合はnextをそのまま返す。
func WithPreservedAuthors(next model.Status, prev *model.Status) model.Status {
	if prev == nil {
		return next
	}

	out := next

	if len(next.Comments) > 0 && len(prev.Comments) > 0 {
		prevByID := make(map[string]model.Comment, len(prev.Comments))
		for _, c := range prev.Comments {
			prevByID[c.ID] = c
		}

		merged := make([]model.Comment, len(next.Comments))
		for i, c := range next.Comments {
			merged[i] = c
			if !c.CreatedBy.IsIdentifier() {
				continue
			}
			if old, ok := prevByID[c.ID]; ok && richerAuthor(c.CreatedBy, old.CreatedBy) {
				merged[i].CreatedBy = old.CreatedBy
			}
		}
		out.Comments = merged
	}

	if next.CreatedBy.IsIdentifier() && richerAuthor(next.CreatedBy, prev.CreatedBy) {
		out.CreatedBy = prev.CreatedBy
	}

	return out
}

// richerAuthor はoldが埋め込み形式で、かつcurと別の作者を指していないかを判定する。
// 埋め込み側の_idが空の場合は同一作者とみなす。
func richerAuthor(cur, old model.AuthorRef) bool {
	if !old.IsEmbedded() {
		return false
	}
	return old.ID() == "" || old.ID() == cur.ID()
}
