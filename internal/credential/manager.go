// Package credential はクライアント側のセッションとサービスキーを管理する。
//
// ブラウザのlocalStorageに相当する永続ストアを注入して使う。
// ストアがnilの場合は永続ストアを利用できない実行環境とみなし、
// すべての操作を何もしない・値なしとして扱う（エラーは返さない）。
package credential

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/hitoshi/classmate/internal/model"
	"github.com/hitoshi/classmate/internal/repository"
)

// 永続ストアのキー
const (
	TokenKey      = "cis-classroom-token"
	ProfileKey    = "cis-classroom-user"
	ServiceKeyKey = "cis_api_key"
)

// State はManagerのライフサイクル状態を表す。
type State int

const (
	// StateUninitialized は永続ストアをまだ読み込んでいない状態。
	StateUninitialized State = iota
	// StateLoaded は永続ストアを読み込み済みでセッションが無い状態。
	StateLoaded
	// StateActive はセッションが有効な状態。
	StateActive
)

// String は状態名を返す。
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoaded:
		return "loaded"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Manager はセッショントークン・プロフィール・サービスキーを保持する。
// 1つのストアにつき有効なセッションは常に1つだけ。
type Manager struct {
	mu sync.Mutex

	kv         repository.KVRepository
	logger     *slog.Logger
	defaultKey string

	state      State
	token      string
	profile    *model.Profile
	serviceKey string // 読み書きに成功したサービスキーのキャッシュ
}

// NewManager はManagerを生成する。
// defaultKeyはストアにサービスキーが無い場合のフォールバック値（空でもよい）。
func NewManager(kv repository.KVRepository, defaultKey string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		kv:         kv,
		logger:     logger,
		defaultKey: defaultKey,
	}
}

// Init は永続ストアからトークンとプロフィールを読み込む。
// 起動時に1回呼び出す。2回目以降は何もしない。
func (m *Manager) Init(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadLocked(ctx)
}

// State は現在のライフサイクル状態を返す。
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SaveSession はサインイン成功時にトークンとプロフィールを保存する。
func (m *Manager) SaveSession(ctx context.Context, token string, profile model.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadLocked(ctx)

	p := profile
	m.token = token
	m.profile = &p
	m.state = StateActive

	if m.kv == nil {
		return
	}

	if err := m.kv.Set(ctx, TokenKey, token); err != nil {
		m.logger.Error("failed to persist session token", slog.String("error", err.Error()))
	}

	raw, err := json.Marshal(profile)
	if err != nil {
		m.logger.Error("failed to encode session profile", slog.String("error", err.Error()))
		return
	}
	if err := m.kv.Set(ctx, ProfileKey, string(raw)); err != nil {
		m.logger.Error("failed to persist session profile", slog.String("error", err.Error()))
	}
}

// Token はセッショントークンを返す。セッションが無い場合は空文字列。
func (m *Manager) Token(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadLocked(ctx)
	return m.token
}

// Profile はセッションのプロフィールを返す。無い場合はokがfalse。
func (m *Manager) Profile(ctx context.Context) (model.Profile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadLocked(ctx)
	if m.profile == nil {
		return model.Profile{}, false
	}
	return *m.profile, true
}

// ClearSession はサインアウト時にトークンとプロフィールを破棄する。
// サービスキーは保持する。
func (m *Manager) ClearSession(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadLocked(ctx)

	m.token = ""
	m.profile = nil
	m.state = StateLoaded

	if m.kv == nil {
		return
	}
	for _, key := range []string{TokenKey, ProfileKey} {
		if err := m.kv.Delete(ctx, key); err != nil {
			m.logger.Error("failed to clear session entry",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
}

// ServiceKey はサービスキーを返す。
// メモリキャッシュ → 永続ストア → デフォルト値の順に参照する。
func (m *Manager) ServiceKey(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.serviceKey != "" {
		return m.serviceKey
	}

	if m.kv != nil {
		v, ok, err := m.kv.Get(ctx, ServiceKeyKey)
		if err != nil {
			m.logger.Warn("failed to read service key", slog.String("error", err.Error()))
		} else if ok && v != "" {
			m.serviceKey = v
			return v
		}
	}

	return m.defaultKey
}

// SetServiceKey はサービスキーを上書きし、永続ストアにも保存する。
// 保存に失敗してもメモリキャッシュには反映する。
func (m *Manager) SetServiceKey(ctx context.Context, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.serviceKey = value

	if m.kv == nil {
		return
	}
	if err := m.kv.Set(ctx, ServiceKeyKey, value); err != nil {
		m.logger.Warn("failed to persist service key", slog.String("error", err.Error()))
	}
}

// loadLocked は未初期化の場合に永続ストアからセッションを読み込む。
// 呼び出し元はmuを保持していること。
func (m *Manager) loadLocked(ctx context.Context) {
	if m.state != StateUninitialized {
		return
	}
	m.state = StateLoaded

	if m.kv == nil {
		return
	}

	token, ok, err := m.kv.Get(ctx, TokenKey)
	if err != nil {
		m.logger.Warn("failed to read session token", slog.String("error", err.Error()))
	} else if ok {
		m.token = token
	}

	m.profile = m.readProfileLocked(ctx)

	if m.token != "" || m.profile != nil {
		m.state = StateActive
	}
}

// readProfileLocked は保存済みプロフィールを読み込む。
// 期待する形でデコードできない場合はエントリを削除してnilを返す。
func (m *Manager) readProfileLocked(ctx context.Context) *model.Profile {
	raw, ok, err := m.kv.Get(ctx, ProfileKey)
	if err != nil {
		m.logger.Warn("failed to read session profile", slog.String("error", err.Error()))
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var p model.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil || (p.ID == "" && p.Email == "") {
		m.logger.Warn("unable to parse stored profile, clearing it")
		if err := m.kv.Delete(ctx, ProfileKey); err != nil {
			m.logger.Error("failed to clear corrupt profile", slog.String("error", err.Error()))
		}
		return nil
	}

	return &p
}
