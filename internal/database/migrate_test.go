package database

import (
	"path/filepath"
	"testing"
)

func TestRunMigrations_CreatesKVTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")

	if err := RunMigrations(path); err != nil {
		t.Fatalf("マイグレーション実行に失敗: %v", err)
	}

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open がエラーを返した: %v", err)
	}
	defer db.Close()

	var count int
	err = db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'kv_entries'`).Scan(&count)
	if err != nil {
		t.Fatalf("テーブル確認クエリに失敗: %v", err)
	}
	if count != 1 {
		t.Errorf("kv_entries テーブル数 = %d, want 1", count)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")

	if err := RunMigrations(path); err != nil {
		t.Fatalf("1回目のマイグレーションに失敗: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("2回目のマイグレーションはErrNoChangeを無視して成功するべき: %v", err)
	}
}

func TestNewMigrator_LoadsEmbeddedSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src.db")

	m, err := NewMigrator(path)
	if err != nil {
		t.Fatalf("NewMigrator がエラーを返した: %v", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		t.Fatalf("Up がエラーを返した: %v", err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		t.Fatalf("Version がエラーを返した: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("version = %d, dirty = %v, want 1, false", version, dirty)
	}
}
