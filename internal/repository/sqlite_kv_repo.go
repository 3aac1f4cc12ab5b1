package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLiteKVRepo はSQLiteを使用したキーバリューリポジトリ。
type SQLiteKVRepo struct {
	db *sql.DB
}

// NewSQLiteKVRepo はSQLiteKVRepoを生成する。
func NewSQLiteKVRepo(db *sql.DB) *SQLiteKVRepo {
	return &SQLiteKVRepo{db: db}
}

// Get は指定キーの値を取得する。
func (r *SQLiteKVRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM kv_entries WHERE key = ?`,
		key,
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get kv entry: %w", err)
	}

	return value, true, nil
}

// Set は指定キーに値をアップサートする。
func (r *SQLiteKVRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set kv entry: %w", err)
	}
	return nil
}

// Delete は指定キーを削除する。
func (r *SQLiteKVRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM kv_entries WHERE key = ?`,
		key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete kv entry: %w", err)
	}
	return nil
}

// compile-time interface check
var _ KVRepository = (*SQLiteKVRepo)(nil)
