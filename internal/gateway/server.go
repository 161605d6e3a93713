package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/nao1215/usergate/internal/config"
	"github.com/nao1215/usergate/internal/userproxy"
	"github.com/nao1215/usergate/pkg/apperror"
	"github.com/nao1215/usergate/pkg/httpclient"
	"github.com/nao1215/usergate/pkg/middleware"
)

// shutdownTimeout はグレースフルシャットダウンで処理中のリクエストを待つ上限。
const shutdownTimeout = 10 * time.Second

// Authenticator はログイン時の認証情報照合とトークン発行を行う。
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// UserProxy は上流IDプロバイダへのユーザー管理操作を行う。
type UserProxy interface {
	CreateUser(ctx context.Context, user userproxy.NewUser) (*httpclient.Response, error)
	UpdateUser(ctx context.Context, userID string, patch userproxy.UserPatch) (*httpclient.Response, error)
	UnlockUser(ctx context.Context, userID string) (*httpclient.Response, error)
	DeprovisionUser(ctx context.Context, userID string) (*httpclient.Response, error)
	PasswordUnlock(ctx context.Context, userID string) (*httpclient.Response, error)
	SearchUsers(ctx context.Context, params userproxy.SearchParams) (*httpclient.Response, error)
}

// Server はゲートウェイのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// jwtSecret はトークン検証用の共有秘密鍵。
	jwtSecret string
	// auth はログイン処理。
	auth Authenticator
	// users は上流へのユーザー管理操作。
	users UserProxy
}

// NewServer は新しいゲートウェイサーバーを生成する。
func NewServer(cfg config.Config, auth Authenticator, users UserProxy) *Server {
	router := gin.New()
	// RequestLogger → ErrorHandler → Recovery の順に登録する。
	// ErrorHandlerはRecoveryが変換したパニックも含めてすべての失敗を受け取る。
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	s := &Server{
		router:    router,
		port:      cfg.Port,
		jwtSecret: cfg.JWTSecret,
		auth:      auth,
		users:     users,
	}
	s.setupRoutes()

	return s
}

// Handler はサーバーのhttp.Handlerを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるとグレースフルシャットダウンする。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("シャットダウンを開始します")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("シャットダウンに失敗: %w", err)
		}
		return nil
	}
}

// setupRoutes はAPIルーティングを設定する。
//
// 保護されたルートは トークン検証 → ロール確認 → 入力検証 → ハンドラ の順に並べる。
// 認証・認可の失敗はボディの内容に関わらず優先して返す。
func (s *Server) setupRoutes() {
	jwtAuth := middleware.JWTAuth(s.jwtSecret)
	adminOnly := middleware.RequireRole(middleware.RoleAdmin)

	api := s.router.Group("/api")

	// ローカル認証（ログインは認証不要）
	auth := api.Group("/auth")
	{
		auth.POST("/login", middleware.Pipeline(middleware.ValidateJSON[loginRequest](), s.handleLogin()))
		auth.GET("/me", jwtAuth, middleware.Pipeline(s.handleMe()))
	}

	// ユーザー管理（上流へのプロキシ）。すべて認証が必要
	users := api.Group("/users", jwtAuth)
	{
		users.POST("", middleware.Pipeline(adminOnly, middleware.ValidateJSON[createUserRequest](), s.handleCreateUser()))
		users.PUT("/:userId", middleware.Pipeline(adminOnly, middleware.ValidateJSON[updateUserRequest](), s.handleUpdateUser()))
		users.POST("/:userId/unlock", middleware.Pipeline(adminOnly, s.handleUnlockUser()))
		users.POST("/:userId/deprovision", middleware.Pipeline(adminOnly, s.handleDeprovisionUser()))
		users.POST("/:userId/password-unlock", middleware.Pipeline(adminOnly, s.handlePasswordUnlock()))
		// 検索はロールを問わず認証済みであればよい
		users.GET("", middleware.Pipeline(middleware.ValidateQuery[searchUsersQuery](), s.handleSearchUsers()))
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "usergate"})
	})

	s.router.NoRoute(middleware.Pipeline(func(_ *gin.Context) error {
		return apperror.NotFound()
	}))
}
