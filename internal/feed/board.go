// Package feed はステータスフィードの正規化と、楽観的更新を伴う表示状態の管理を提供する。
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hitoshi/classmate/internal/model"
)

var (
	// ErrEmptyContent は空白のみの本文で投稿・コメントしようとした場合のエラー。
	ErrEmptyContent = errors.New("content must not be empty")
	// ErrStatusNotFound はボード上に存在しないステータスを操作しようとした場合のエラー。
	ErrStatusNotFound = errors.New("status not found")
)

// StatusAPI はボードが利用するステータス系APIのインターフェース。
// テスタビリティのためclassroom.Clientを抽象化する。
// 変更系メソッドはレスポンスにdataが無い場合nilを返す。
type StatusAPI interface {
	ListStatuses(ctx context.Context) ([]model.Status, error)
	CreateStatus(ctx context.Context, content string) (*model.Status, error)
	CreateComment(ctx context.Context, statusID, content string) (*model.Status, error)
	SetLike(ctx context.Context, statusID string, action model.LikeAction) (*model.Status, error)
}

// Board は1人の閲覧者から見たステータス一覧を保持する。
// ネットワークI/Oの間はロックを保持しない。
type Board struct {
	mu       sync.Mutex
	api      StatusAPI
	viewer   Viewer
	logger   *slog.Logger
	statuses []model.Status
	likeSeq  map[string]uint64
}

// NewBoard はBoardの新しいインスタンスを生成する。
func NewBoard(api StatusAPI, viewer Viewer, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{
		api:     api,
		viewer:  viewer,
		logger:  logger,
		likeSeq: make(map[string]uint64),
	}
}

// Refresh は一覧を取得し直し、既存エントリとマージして置き換える。
// 並び順は上流が返した順を保つ。
func (b *Board) Refresh(ctx context.Context) error {
	list, err := b.api.ListStatuses(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	prev := make(map[string]model.Status, len(b.statuses))
	for _, s := range b.statuses {
		prev[s.ID] = s
	}

	next := make([]model.Status, 0, len(list))
	for _, s := range list {
		n := Normalize(s, b.viewer)
		if old, ok := prev[n.ID]; ok {
			n = WithPreservedAuthors(n, &old)
		}
		next = append(next, n)
	}
	b.statuses = next
	return nil
}

// Publish は新しいステータスを投稿し、結果を先頭に追加する。
func (b *Board) Publish(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyContent
	}

	created, err := b.api.CreateStatus(ctx, content)
	if err != nil {
		return err
	}
	if created == nil {
		return b.Refresh(ctx)
	}

	n := Normalize(*created, b.viewer)

	b.mu.Lock()
	b.statuses = append([]model.Status{n}, b.statuses...)
	b.mu.Unlock()
	return nil
}

// Comment はステータスにコメントを追加し、返却されたステータスでエントリを置き換える。
// いいねの世代には影響しない。
func (b *Board) Comment(ctx context.Context, statusID, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyContent
	}

	updated, err := b.api.CreateComment(ctx, statusID, content)
	if err != nil {
		return err
	}
	if updated == nil {
		return b.Refresh(ctx)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.indexLocked(statusID)
	if idx < 0 {
		b.statuses = append([]model.Status{Normalize(*updated, b.viewer)}, b.statuses...)
		return nil
	}
	b.statuses[idx] = WithPreservedAuthors(Normalize(*updated, b.viewer), &b.statuses[idx])
	return nil
}

// ToggleLike は閲覧者のいいね状態を反転する。
// 反転した状態を即座に反映してからAPIを呼び出し、失敗した場合は直前の状態に戻してエラーを返す。
// 後続のいいね操作が始まっている場合、古いレスポンスやロールバックは破棄する。
// ロールバックはいいね関連のフィールドだけを戻すため、途中で反映されたコメントは残る。
func (b *Board) ToggleLike(ctx context.Context, statusID string) error {
	b.mu.Lock()
	idx := b.indexLocked(statusID)
	if idx < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrStatusNotFound, statusID)
	}
	snapshot := b.statuses[idx].Clone()
	optimistic := Toggled(snapshot, b.viewer)
	b.statuses[idx] = optimistic
	seq := b.nextLikeSeqLocked(statusID)
	b.mu.Unlock()

	action := model.LikeActionLike
	if !*optimistic.HasLiked {
		action = model.LikeActionUnlike
	}

	updated, err := b.api.SetLike(ctx, statusID, action)
	if err != nil {
		b.mu.Lock()
		defer b.mu.Unlock()
		if !b.isCurrentLikeLocked(statusID, seq) {
			b.logger.Debug("discarding stale like rollback", slog.String("status_id", statusID))
			return err
		}
		if i := b.indexLocked(statusID); i >= 0 {
			restoreLikeState(&b.statuses[i], snapshot)
		}
		return err
	}
	if updated == nil {
		return b.Refresh(ctx)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.isCurrentLikeLocked(statusID, seq) {
		b.logger.Debug("discarding stale like response", slog.String("status_id", statusID))
		return nil
	}
	if i := b.indexLocked(statusID); i >= 0 {
		b.statuses[i] = WithPreservedAuthors(Normalize(*updated, b.viewer), &b.statuses[i])
	}
	return nil
}

// Snapshot は現在の一覧のコピーを返す。
func (b *Board) Snapshot() []model.Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]model.Status, len(b.statuses))
	for i, s := range b.statuses {
		out[i] = s.Clone()
	}
	return out
}

// Get は指定IDのステータスのコピーを返す。
func (b *Board) Get(statusID string) (model.Status, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.indexLocked(statusID)
	if idx < 0 {
		return model.Status{}, false
	}
	return b.statuses[idx].Clone(), true
}

func (b *Board) indexLocked(statusID string) int {
	for i, s := range b.statuses {
		if s.ID == statusID {
			return i
		}
	}
	return -1
}

func (b *Board) nextLikeSeqLocked(statusID string) uint64 {
	b.likeSeq[statusID]++
	return b.likeSeq[statusID]
}

func (b *Board) isCurrentLikeLocked(statusID string, seq uint64) bool {
	return b.likeSeq[statusID] == seq
}

// restoreLikeState はいいね関連のフィールドをトグル前の状態に戻す。
func restoreLikeState(dst *model.Status, snapshot model.Status) {
	dst.Likes = snapshot.Likes
	dst.LikeCount = snapshot.LikeCount
	dst.HasLiked = snapshot.HasLiked
}
