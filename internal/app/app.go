// Package app はサブコマンドの解析と、プロキシ・クライアント双方の依存関係の組み立てを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hitoshi/classmate/internal/config"
	"github.com/hitoshi/classmate/internal/database"
	"github.com/hitoshi/classmate/internal/logger"
)

// Init はプロキシの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, logger.ParseLevel(os.Getenv("LOG_LEVEL")))

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。stdoutにはコマンドの出力を、stderrにはクライアントのログを書き込む。
func Run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	cmd := ParseCommand(args)
	var rest []string
	if len(args) > 0 {
		rest = args[1:]
	}

	switch {
	case cmd == CommandHealthcheck:
		// 軽量サブコマンドのため、フル初期化をスキップする
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	case cmd == CommandHelp:
		fmt.Fprint(stdout, usage)
		return nil
	case cmd == CommandUnknown:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	case cmd == CommandMigrate:
		return runMigrate(stderr)
	case cmd.IsClient():
		return runClient(ctx, cmd, rest, stdout, stderr)
	}

	cfg, err := Init(stdout)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("upstream", cfg.UpstreamBaseURL),
		slog.String("log_level", cfg.LogLevel),
	)

	return runServe(ctx, cfg)
}

// runMigrate はローカルストアのマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(stderr io.Writer) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("failed to load client config: %w", err)
	}
	log := logger.SetupWithLevel(stderr, logger.ParseLevel(cfg.LogLevel))

	log.Info("running local store migrations", slog.String("path", cfg.StorePath))

	if err := ensureStoreDir(cfg.StorePath); err != nil {
		return err
	}
	if err := database.RunMigrations(cfg.StorePath); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Info("local store migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
