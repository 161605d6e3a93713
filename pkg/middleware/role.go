package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/nao1215/usergate/pkg/apperror"
)

// RoleAdmin は管理者ロール名。
const RoleAdmin = "admin"

// RequireRole は呼び出し元のロールが指定ロールと完全一致することを要求するステージを返す。
// 比較は大文字小文字を区別し、ロールの階層は持たない。
// VerifyTokenより後に配置すること。身元情報がなければ権限不足として扱う。
func RequireRole(role string) Stage {
	return func(c *gin.Context) error {
		identity, ok := GetIdentity(c)
		if !ok || identity.Role != role {
			return apperror.InsufficientPermissions()
		}
		return nil
	}
}
