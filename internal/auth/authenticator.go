// Package auth は静的な認証情報によるローカルログインを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/nao1215/usergate/internal/credential"
	"github.com/nao1215/usergate/pkg/apperror"
	"github.com/nao1215/usergate/pkg/middleware"
)

// errUnknownUser はユーザー名に一致するレコードが無いことを表す。ログ出力専用。
var errUnknownUser = errors.New("ユーザー名に一致する認証情報がありません")

// Authenticator はユーザー名とパスワードを照合し、Bearerトークンを発行する。
type Authenticator struct {
	store  credential.Store
	secret string
	// dummyHash はユーザー名が存在しない場合にも同じ計算量で照合するためのハッシュ。
	dummyHash []byte
}

// New は新しいAuthenticatorを生成する。
func New(store credential.Store, secret string) (*Authenticator, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("usergate-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("ダミーハッシュの生成に失敗: %w", err)
	}
	return &Authenticator{
		store:     store,
		secret:    secret,
		dummyHash: dummy,
	}, nil
}

// Login は認証情報を照合し、成功すれば1時間有効なトークンを返す。
// ユーザー名が存在しない場合とパスワードが一致しない場合は、
// どちらも同じInvalidCredentialsエラーを返す。
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, error) {
	record, found, err := a.store.Lookup(ctx, username)
	if err != nil {
		return "", fmt.Errorf("認証情報の参照に失敗: %w", err)
	}

	if !found {
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(password))
		return "", apperror.InvalidCredentials(errUnknownUser)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return "", apperror.InvalidCredentials(fmt.Errorf("user=%s: %w", username, err))
	}

	token, err := middleware.GenerateJWT(a.secret, middleware.Identity{
		ID:       record.ID,
		Username: record.Username,
		Role:     record.Role,
	})
	if err != nil {
		return "", err
	}
	return token, nil
}
