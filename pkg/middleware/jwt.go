package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/nao1215/usergate/pkg/apperror"
)

// TokenTTL はログイン時に発行するトークンの有効期間。
const TokenTTL = time.Hour

// tokenIssuer はトークンのiss クレームに設定する発行者名。
const tokenIssuer = "usergate"

// contextKeyIdentity はGinコンテキストに呼び出し元の身元を格納するキー。
const contextKeyIdentity = "identity"

// Identity はトークンから取り出した呼び出し元の身元。
// リクエスト1件の処理中だけ存在し、永続化されない。
type Identity struct {
	// ID は呼び出し元の一意識別子。
	ID string `json:"id"`
	// Username はログインユーザー名。
	Username string `json:"username"`
	// Role はアクセス制御に使用するロール名。
	Role string `json:"role"`
}

// JWTClaims はJWTトークンのクレーム（ペイロード）を表す。
type JWTClaims struct {
	jwt.RegisteredClaims
	// UserID は呼び出し元の一意識別子。
	UserID string `json:"id"`
	// Username はログインユーザー名。
	Username string `json:"username"`
	// Role はロール名。
	Role string `json:"role"`
}

// GenerateJWT は身元情報からHS256で署名したJWTトークンを生成する。
// 有効期限は発行時刻からTokenTTL後に固定される。
func GenerateJWT(secret string, identity Identity) (string, error) {
	return generateJWTAt(secret, identity, time.Now())
}

func generateJWTAt(secret string, identity Identity, now time.Time) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
		UserID:   identity.ID,
		Username: identity.Username,
		Role:     identity.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// ParseJWT はトークンの署名と有効期限を検証し、身元情報を返す。
// HS256以外の署名方式と、有効期限のないトークンは拒否する。
func ParseJWT(secret, tokenString string) (Identity, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("トークンの検証に失敗: %w", err)
	}
	if !token.Valid {
		return Identity{}, errors.New("トークンが無効です")
	}

	return Identity{
		ID:       claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}

// VerifyToken はAuthorizationヘッダーのBearerトークンを検証するステージを返す。
// トークンがなければ401、検証に失敗すれば403を返す。
// 成功した場合のみ身元情報をコンテキストに設定する。
func VerifyToken(secret string) Stage {
	return func(c *gin.Context) error {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			return apperror.AuthenticationRequired()
		}

		identity, err := ParseJWT(secret, tokenString)
		if err != nil {
			return apperror.InvalidToken(err)
		}

		c.Set(contextKeyIdentity, identity)
		return nil
	}
}

// JWTAuth はVerifyTokenを単独で実行するGinミドルウェアを返す。
func JWTAuth(secret string) gin.HandlerFunc {
	return Pipeline(VerifyToken(secret))
}

// GetIdentity はGinコンテキストから呼び出し元の身元を取得する。
// VerifyTokenが事前に成功していない場合はfalseを返す。
func GetIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(contextKeyIdentity)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
func bearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
