package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/usergate/pkg/apperror"
	"github.com/nao1215/usergate/pkg/httpclient"
	"github.com/nao1215/usergate/pkg/middleware"
)

// errMissingInput は前段の検証ステージを通らずにハンドラへ到達したことを表す。
var errMissingInput = errors.New("検証済みの入力がコンテキストにありません")

// handleLogin は認証情報を照合してトークンを発行するハンドラを返す。
func (s *Server) handleLogin() middleware.Stage {
	return func(c *gin.Context) error {
		req, ok := middleware.Body[loginRequest](c)
		if !ok {
			return errMissingInput
		}

		token, err := s.auth.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			return err
		}

		c.JSON(http.StatusOK, gin.H{"token": token})
		return nil
	}
}

// handleMe は認証済みの呼び出し元の身元情報を返すハンドラを返す。
func (s *Server) handleMe() middleware.Stage {
	return func(c *gin.Context) error {
		identity, ok := middleware.GetIdentity(c)
		if !ok {
			return apperror.AuthenticationRequired()
		}
		c.JSON(http.StatusOK, identity)
		return nil
	}
}

// handleCreateUser は上流にユーザーを作成するハンドラを返す。
func (s *Server) handleCreateUser() middleware.Stage {
	return func(c *gin.Context) error {
		req, ok := middleware.Body[createUserRequest](c)
		if !ok {
			return errMissingInput
		}

		resp, err := s.users.CreateUser(c.Request.Context(), req.toNewUser())
		if err != nil {
			return err
		}
		relay(c, http.StatusCreated, resp)
		return nil
	}
}

// handleUpdateUser は上流のユーザー属性を部分更新するハンドラを返す。
func (s *Server) handleUpdateUser() middleware.Stage {
	return func(c *gin.Context) error {
		req, ok := middleware.Body[updateUserRequest](c)
		if !ok {
			return errMissingInput
		}

		resp, err := s.users.UpdateUser(c.Request.Context(), c.Param("userId"), req.toPatch())
		if err != nil {
			return err
		}
		relay(c, http.StatusOK, resp)
		return nil
	}
}

// handleUnlockUser はユーザーのロックを解除するハンドラを返す。
func (s *Server) handleUnlockUser() middleware.Stage {
	return func(c *gin.Context) error {
		resp, err := s.users.UnlockUser(c.Request.Context(), c.Param("userId"))
		if err != nil {
			return err
		}
		relay(c, http.StatusOK, resp)
		return nil
	}
}

// handleDeprovisionUser はユーザーをデプロビジョニングするハンドラを返す。
func (s *Server) handleDeprovisionUser() middleware.Stage {
	return func(c *gin.Context) error {
		resp, err := s.users.DeprovisionUser(c.Request.Context(), c.Param("userId"))
		if err != nil {
			return err
		}
		relay(c, http.StatusOK, resp)
		return nil
	}
}

// handlePasswordUnlock はユーザーのパスワードロックを解除するハンドラを返す。
func (s *Server) handlePasswordUnlock() middleware.Stage {
	return func(c *gin.Context) error {
		resp, err := s.users.PasswordUnlock(c.Request.Context(), c.Param("userId"))
		if err != nil {
			return err
		}
		relay(c, http.StatusOK, resp)
		return nil
	}
}

// handleSearchUsers はユーザーを検索するハンドラを返す。
// page=1, limit=10, search="" をデフォルトとする。
func (s *Server) handleSearchUsers() middleware.Stage {
	return func(c *gin.Context) error {
		q, ok := middleware.Query[searchUsersQuery](c)
		if !ok {
			return errMissingInput
		}

		resp, err := s.users.SearchUsers(c.Request.Context(), q.toParams())
		if err != nil {
			return err
		}
		relay(c, http.StatusOK, resp)
		return nil
	}
}

// relay は上流のレスポンスボディをそのまま返す。
func relay(c *gin.Context, status int, resp *httpclient.Response) {
	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(status, contentType, resp.Body)
}
