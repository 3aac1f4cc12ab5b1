// Package repository はローカルデータ永続化のインターフェースを定義する。
package repository

import "context"

// KVRepository はクライアント側の永続キーバリューストアのインターフェース。
// ブラウザのlocalStorageに相当し、セッショントークン・プロフィール・サービスキーを保持する。
type KVRepository interface {
	// Get は指定キーの値を取得する。存在しない場合はokがfalseになる。
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set は指定キーに値を保存する。既存の値は上書きされる。
	Set(ctx context.Context, key, value string) error

	// Delete は指定キーを削除する。存在しない場合も成功とする。
	Delete(ctx context.Context, key string) error
}
