package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hitoshi/classmate/internal/database"
)

func setupKVRepo(t *testing.T) *SQLiteKVRepo {
	t.Helper()

	path := filepath.Join(t.TempDir(), "kv.db")
	if err := database.RunMigrations(path); err != nil {
		t.Fatalf("マイグレーション実行に失敗: %v", err)
	}

	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("データベースのオープンに失敗: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewSQLiteKVRepo(db)
}

func TestSQLiteKVRepo_GetMissingKey(t *testing.T) {
	repo := setupKVRepo(t)

	_, ok, err := repo.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get がエラーを返した: %v", err)
	}
	if ok {
		t.Error("存在しないキーでokがtrueになった")
	}
}

func TestSQLiteKVRepo_SetThenGet(t *testing.T) {
	repo := setupKVRepo(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "cis-classroom-token", "tok"); err != nil {
		t.Fatalf("Set がエラーを返した: %v", err)
	}

	v, ok, err := repo.Get(ctx, "cis-classroom-token")
	if err != nil {
		t.Fatalf("Get がエラーを返した: %v", err)
	}
	if !ok || v != "tok" {
		t.Errorf("Get = (%q, %v), want (%q, true)", v, ok, "tok")
	}
}

func TestSQLiteKVRepo_SetOverwrites(t *testing.T) {
	repo := setupKVRepo(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set がエラーを返した: %v", err)
	}
	if err := repo.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("2回目のSet がエラーを返した: %v", err)
	}

	v, _, _ := repo.Get(ctx, "k")
	if v != "v2" {
		t.Errorf("Get = %q, want %q", v, "v2")
	}
}

func TestSQLiteKVRepo_Delete(t *testing.T) {
	repo := setupKVRepo(t)
	ctx := context.Background()

	repo.Set(ctx, "k", "v")
	if err := repo.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete がエラーを返した: %v", err)
	}
	if _, ok, _ := repo.Get(ctx, "k"); ok {
		t.Error("削除後もキーが残っている")
	}

	if err := repo.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("存在しないキーの削除はエラーにならないべき: %v", err)
	}
}
