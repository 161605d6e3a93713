// Package userproxy は上流IDプロバイダのユーザー管理APIへの呼び出しを提供する。
//
// 上流の処理結果はそのまま返し、失敗は操作ごとの固定メッセージを持つ
// apperror.Errorに変換する。上流のエラーボディは呼び出し元には返さない。
package userproxy

import (
	"context"
	"net/url"
	"strconv"

	"github.com/nao1215/usergate/pkg/apperror"
	"github.com/nao1215/usergate/pkg/httpclient"
)

// 操作ごとに呼び出し元へ返す固定メッセージ。
const (
	MsgCreateFailed         = "Failed to create user"
	MsgUpdateFailed         = "Failed to update user"
	MsgUnlockFailed         = "Failed to unlock user"
	MsgDeprovisionFailed    = "Failed to deprovision user"
	MsgPasswordUnlockFailed = "Failed to unlock password"
	MsgSearchFailed         = "Failed to search users"
)

// usersPath は上流のユーザーリソースのパス。
const usersPath = "/users"

// Upstream は上流APIへのHTTP呼び出しを抽象化する。
type Upstream interface {
	PostJSON(ctx context.Context, path string, body any) (*httpclient.Response, error)
	PutJSON(ctx context.Context, path string, body any) (*httpclient.Response, error)
	Get(ctx context.Context, path string, query url.Values) (*httpclient.Response, error)
}

// NewUser はユーザー作成時に上流へ送る属性。
type NewUser struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// UserPatch はユーザー更新時に上流へ送る属性。nilのフィールドは送信しない。
type UserPatch struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Role      *string `json:"role,omitempty"`
}

// SearchParams はユーザー検索の条件。
type SearchParams struct {
	// Page は1始まりのページ番号。
	Page int
	// Limit は1ページあたりの件数。
	Limit int
	// Search は検索文字列。空文字列は全件を表す。
	Search string
}

// Service は上流IDプロバイダへのユーザー管理操作を提供する。
type Service struct {
	upstream Upstream
}

// NewService は新しいServiceを生成する。
func NewService(upstream Upstream) *Service {
	return &Service{upstream: upstream}
}

// CreateUser は上流にユーザーを作成する。
func (s *Service) CreateUser(ctx context.Context, user NewUser) (*httpclient.Response, error) {
	resp, err := s.upstream.PostJSON(ctx, usersPath, user)
	return relay(resp, err, MsgCreateFailed)
}

// UpdateUser は上流のユーザー属性を部分更新する。
func (s *Service) UpdateUser(ctx context.Context, userID string, patch UserPatch) (*httpclient.Response, error) {
	resp, err := s.upstream.PutJSON(ctx, userPath(userID, ""), patch)
	return relay(resp, err, MsgUpdateFailed)
}

// UnlockUser は上流のユーザーのロックを解除する。
func (s *Service) UnlockUser(ctx context.Context, userID string) (*httpclient.Response, error) {
	resp, err := s.upstream.PostJSON(ctx, userPath(userID, "/unlock"), nil)
	return relay(resp, err, MsgUnlockFailed)
}

// DeprovisionUser は上流のユーザーをデプロビジョニングする。
func (s *Service) DeprovisionUser(ctx context.Context, userID string) (*httpclient.Response, error) {
	resp, err := s.upstream.PostJSON(ctx, userPath(userID, "/deprovision"), nil)
	return relay(resp, err, MsgDeprovisionFailed)
}

// PasswordUnlock は上流のユーザーのパスワードロックを解除する。
func (s *Service) PasswordUnlock(ctx context.Context, userID string) (*httpclient.Response, error) {
	resp, err := s.upstream.PostJSON(ctx, userPath(userID, "/password-unlock"), nil)
	return relay(resp, err, MsgPasswordUnlockFailed)
}

// SearchUsers は上流のユーザーをページ単位で検索する。
func (s *Service) SearchUsers(ctx context.Context, params SearchParams) (*httpclient.Response, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(params.Page))
	query.Set("limit", strconv.Itoa(params.Limit))
	query.Set("search", params.Search)

	resp, err := s.upstream.Get(ctx, usersPath, query)
	return relay(resp, err, MsgSearchFailed)
}

func userPath(userID, suffix string) string {
	return usersPath + "/" + url.PathEscape(userID) + suffix
}

// relay は上流呼び出しの結果を返す。失敗時は上流のステータスを引き継いだ
// apperror.Errorに変換し、レスポンスが得られなかった場合は500にする。
func relay(resp *httpclient.Response, err error, message string) (*httpclient.Response, error) {
	if err != nil {
		return nil, apperror.UpstreamFailure(httpclient.StatusCode(err), message, err)
	}
	return resp, nil
}
