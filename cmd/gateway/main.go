// ユーザー管理ゲートウェイのエントリポイント。
// ローカル認証によるJWT発行と、上流IDプロバイダのユーザー管理APIへの中継を担当する。
// 外部からアクセス可能な唯一のサービスであり、セキュリティの境界線となる。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/nao1215/usergate/internal/auth"
	"github.com/nao1215/usergate/internal/config"
	"github.com/nao1215/usergate/internal/credential"
	"github.com/nao1215/usergate/internal/gateway"
	"github.com/nao1215/usergate/internal/logging"
	"github.com/nao1215/usergate/internal/userproxy"
	"github.com/nao1215/usergate/pkg/httpclient"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("設定の読み込みに失敗")
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("ロガーの初期化に失敗")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := loadCredentials(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("認証情報の読み込みに失敗")
	}
	log.Info().Int("users", store.Len()).Msg("認証情報を読み込みました")

	authenticator, err := auth.New(store, cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("認証処理の初期化に失敗")
	}
	users := userproxy.NewService(httpclient.New(cfg.UpstreamBaseURL, cfg.UpstreamAPIKey))

	server := gateway.NewServer(cfg, authenticator, users)

	log.Info().Str("port", cfg.Port).Str("upstream", cfg.UpstreamBaseURL).Msg("ゲートウェイを起動します")
	if err := server.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("ゲートウェイの起動に失敗")
	}
	log.Info().Msg("ゲートウェイを停止しました")
}

// loadCredentials は設定に応じてSQLiteまたはファイルから認証情報を読み込む。
func loadCredentials(ctx context.Context, cfg config.Config) (*credential.MemoryStore, error) {
	if cfg.CredentialsDB != "" {
		return credential.LoadSQLite(ctx, cfg.CredentialsDB)
	}
	return credential.LoadFile(cfg.CredentialsFile)
}
