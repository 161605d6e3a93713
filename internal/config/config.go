// Package config は環境変数からゲートウェイの実行時設定を読み込む。
package config

import (
	"errors"
	"os"
	"strings"
)

// ErrMissingJWTSecret はJWT_SECRETが設定されていないことを表す。
var ErrMissingJWTSecret = errors.New("JWT_SECRETが設定されていません")

// Config はゲートウェイの実行時設定。起動時に一度だけ読み込み、以降は変更しない。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// JWTSecret はトークンの署名・検証に使用する共有秘密鍵。
	JWTSecret string
	// UpstreamBaseURL は上流IDプロバイダAPIのベースURL。
	UpstreamBaseURL string
	// UpstreamAPIKey は上流APIに提示するサービス用のBearerトークン。
	UpstreamAPIKey string
	// CredentialsFile は静的な認証情報ファイルのパス。
	CredentialsFile string
	// CredentialsDB は認証情報を格納したSQLiteデータベースのパス。設定時はファイルより優先する。
	CredentialsDB string
	// AllowedOrigins はCORSを許可するオリジン。
	AllowedOrigins []string
	// LogLevel はログ出力レベル（debug, info, warn, error）。
	LogLevel string
	// LogFormat はログ出力形式（json, console）。
	LogFormat string
}

// Load は環境変数から設定を読み込む。JWT_SECRETが未設定の場合はエラーを返す。
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	or := func(key, defaultValue string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return defaultValue
	}

	cfg := Config{
		Port:            or("PORT", "3000"),
		JWTSecret:       getenv("JWT_SECRET"),
		UpstreamBaseURL: or("OAUTH2_BASE_URL", "http://localhost:8080"),
		UpstreamAPIKey:  getenv("OAUTH2_API_KEY"),
		CredentialsFile: or("CREDENTIALS_FILE", "data/credentials.yaml"),
		CredentialsDB:   getenv("CREDENTIALS_DB"),
		AllowedOrigins:  parseCSV(getenv("ALLOWED_ORIGINS")),
		LogLevel:        or("LOG_LEVEL", "info"),
		LogFormat:       or("LOG_FORMAT", "json"),
	}
	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingJWTSecret
	}
	return cfg, nil
}

// parseCSV はカンマ区切りの文字列を分割する。空要素は除く。
func parseCSV(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
