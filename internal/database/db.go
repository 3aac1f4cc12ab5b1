package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open はローカルのSQLiteデータベースファイルを開く。
// pathにはデータベースファイルのパスを指定する（例: "/home/user/.config/classmate/classmate.db"）。
// 単一プロセスからのみ利用するため接続数は1に制限し、書き込み競合時は一定時間待機する。
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty database path")
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	return db, nil
}
