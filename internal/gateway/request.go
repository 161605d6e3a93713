package gateway

import (
	"strconv"

	"github.com/nao1215/usergate/internal/userproxy"
)

// 検索クエリのデフォルト値。
const (
	defaultPage  = 1
	defaultLimit = 10
)

// loginRequest はPOST /api/auth/login のボディ。
type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// createUserRequest はPOST /api/users のボディ。
type createUserRequest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Role      string `json:"role" binding:"required"`
}

func (r *createUserRequest) toNewUser() userproxy.NewUser {
	return userproxy.NewUser{
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Role:      r.Role,
	}
}

// updateUserRequest はPUT /api/users/:userId のボディ。すべて省略可能。
type updateUserRequest struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      *string `json:"role"`
}

func (r *updateUserRequest) toPatch() userproxy.UserPatch {
	return userproxy.UserPatch{
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Role:      r.Role,
	}
}

// searchUsersQuery はGET /api/users のクエリ。
// 整数の検証をまとめて報告するため、値は文字列で受け取る。
// キーが無い場合だけnilになり、空文字列は検証の対象になる。
type searchUsersQuery struct {
	Page   *string `form:"page" binding:"omitnil,integer,int_min=1"`
	Limit  *string `form:"limit" binding:"omitnil,integer,int_min=1,int_max=100"`
	Search string  `form:"search"`
}

// toParams はデフォルト値を補った検索条件を返す。検証済みであることが前提。
func (q *searchUsersQuery) toParams() userproxy.SearchParams {
	return userproxy.SearchParams{
		Page:   atoiOr(q.Page, defaultPage),
		Limit:  atoiOr(q.Limit, defaultLimit),
		Search: q.Search,
	}
}

func atoiOr(s *string, defaultValue int) int {
	if s == nil {
		return defaultValue
	}
	if n, err := strconv.Atoi(*s); err == nil {
		return n
	}
	return defaultValue
}
