package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultUpstreamBaseURL は上流の教室APIのデフォルトのベースURL。
const DefaultUpstreamBaseURL = "https://cis.kku.ac.th/api/classroom"

// DefaultProxyURL はクライアントが接続するプロキシのデフォルトURL。
const DefaultProxyURL = "http://localhost:8080"

// Config はプロキシサーバーの設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Upstream
	ServiceKey      string // CIS_API_KEY。未設定でも起動でき、リクエスト時に500を返す
	UpstreamBaseURL string
	UpstreamTimeout time.Duration // 0の場合はトランスポートのデフォルト
	UpstreamGuard   bool

	// Rate Limit
	RateLimitGeneral int

	// Logging
	LogLevel string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からプロキシのConfigを読み込む。
// 値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.ServiceKey = strings.TrimSpace(os.Getenv("CIS_API_KEY"))
	cfg.UpstreamBaseURL = strings.TrimRight(getEnvString("UPSTREAM_BASE_URL", DefaultUpstreamBaseURL), "/")
	if !strings.HasPrefix(cfg.UpstreamBaseURL, "http://") && !strings.HasPrefix(cfg.UpstreamBaseURL, "https://") {
		return nil, fmt.Errorf("UPSTREAM_BASE_URL must be an http(s) URL: %q", cfg.UpstreamBaseURL)
	}

	// Optional fields with defaults
	cfg.UpstreamTimeout = getEnvDuration("UPSTREAM_TIMEOUT", 0)
	cfg.UpstreamGuard = getEnvBool("UPSTREAM_GUARD", true)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// ClientConfig はコンパニオンクライアントの設定を保持する。
type ClientConfig struct {
	ProxyURL   string
	StorePath  string
	DefaultKey string // 保存済みのサービスキーが無い場合に使う値。空なら送らない
	LogLevel   string
}

// LoadClient は環境変数からクライアントの設定を読み込む。
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{
		ProxyURL:   strings.TrimRight(getEnvString("CLASSMATE_PROXY_URL", DefaultProxyURL), "/"),
		DefaultKey: strings.TrimSpace(os.Getenv("CLASSMATE_DEFAULT_KEY")),
		LogLevel:   getEnvString("LOG_LEVEL", "warn"),
	}

	cfg.StorePath = os.Getenv("CLASSMATE_STORE_PATH")
	if cfg.StorePath == "" {
		p, err := defaultStorePath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve store path: %w", err)
		}
		cfg.StorePath = p
	}

	return cfg, nil
}

// defaultStorePath は $XDG_CONFIG_HOME/classmate/classmate.db を返す。
// XDG_CONFIG_HOME が未設定の場合は ~/.classmate.db を返す。
func defaultStorePath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "classmate", "classmate.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".classmate.db"), nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
