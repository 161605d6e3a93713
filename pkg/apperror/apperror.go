// Package apperror はゲートウェイ全体で使用するアプリケーションエラー型を提供する。
//
// パイプラインの各ステージは失敗時にこのパッケージのエラーを返し、
// エラー正規化ミドルウェアがHTTPステータスとレスポンスボディに変換する。
// ここで定義されていないエラーはすべて内部エラーとして500に丸められる。
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind はアプリケーションエラーの種別。
type Kind string

const (
	// KindAuthenticationRequired は認証トークンが提示されていないことを表す。
	KindAuthenticationRequired Kind = "authentication_required"
	// KindInvalidToken はトークンの署名・形式・有効期限の検証に失敗したことを表す。
	KindInvalidToken Kind = "invalid_token"
	// KindInsufficientPermissions はロールが要求を満たさないことを表す。
	KindInsufficientPermissions Kind = "insufficient_permissions"
	// KindInvalidCredentials はログイン情報が一致しないことを表す。
	KindInvalidCredentials Kind = "invalid_credentials"
	// KindValidationFailed はリクエストの入力検証に失敗したことを表す。
	KindValidationFailed Kind = "validation_failed"
	// KindPayloadTooLarge はリクエストボディが上限を超えたことを表す。
	KindPayloadTooLarge Kind = "payload_too_large"
	// KindUpstreamFailure は上流のIDプロバイダ呼び出しが失敗したことを表す。
	KindUpstreamFailure Kind = "upstream_failure"
	// KindNotFound は存在しないルートへのアクセスを表す。
	KindNotFound Kind = "not_found"
	// KindInternal は上記以外の内部エラーを表す。
	KindInternal Kind = "internal"
)

// 呼び出し元に返す固定メッセージ。
const (
	MsgAuthenticationRequired  = "Authentication token required"
	MsgInvalidToken            = "Invalid or expired token"
	MsgInsufficientPermissions = "Insufficient permissions"
	MsgInvalidCredentials      = "Invalid credentials"
	MsgValidationFailed        = "Validation failed"
	MsgPayloadTooLarge         = "Payload Too Large"
	MsgNotFound                = "Not Found"
	MsgInternal                = "Internal Server Error"
)

// FieldError は1つの入力フィールドに対する検証エラー。
type FieldError struct {
	// Field はエラーが発生したフィールド名（JSON/クエリ上の名前）。
	Field string `json:"field"`
	// Message は呼び出し元に返すエラーメッセージ。
	Message string `json:"message"`
}

// Error はHTTPステータスとメッセージを持つアプリケーションエラー。
type Error struct {
	// Kind はエラー種別。
	Kind Kind
	// Status は呼び出し元に返すHTTPステータスコード。
	Status int
	// Message は呼び出し元に返すメッセージ。
	Message string
	// Fields は検証エラーの一覧。KindValidationFailedの場合のみ設定される。
	Fields []FieldError
	// Cause はログにのみ出力される原因エラー。
	Cause error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s: %v", e.Kind, e.Status, e.Message, e.Cause)
}

// Unwrap は原因エラーを返す。
func (e *Error) Unwrap() error {
	return e.Cause
}

// As はエラーチェーンから*Errorを取り出す。見つからない場合はnilを返す。
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// AuthenticationRequired は認証トークン未提示のエラーを生成する。
func AuthenticationRequired() *Error {
	return &Error{Kind: KindAuthenticationRequired, Status: http.StatusUnauthorized, Message: MsgAuthenticationRequired}
}

// InvalidToken はトークン検証失敗のエラーを生成する。
func InvalidToken(cause error) *Error {
	return &Error{Kind: KindInvalidToken, Status: http.StatusForbidden, Message: MsgInvalidToken, Cause: cause}
}

// InsufficientPermissions は権限不足のエラーを生成する。
func InsufficientPermissions() *Error {
	return &Error{Kind: KindInsufficientPermissions, Status: http.StatusForbidden, Message: MsgInsufficientPermissions}
}

// InvalidCredentials はログイン失敗のエラーを生成する。
// ユーザー名の存在有無を漏らさないため、原因に関わらず同じ内容を返す。
func InvalidCredentials(cause error) *Error {
	return &Error{Kind: KindInvalidCredentials, Status: http.StatusUnauthorized, Message: MsgInvalidCredentials, Cause: cause}
}

// ValidationFailed は入力検証失敗のエラーを生成する。
func ValidationFailed(fields []FieldError) *Error {
	return &Error{Kind: KindValidationFailed, Status: http.StatusBadRequest, Message: MsgValidationFailed, Fields: fields}
}

// PayloadTooLarge はリクエストボディが上限を超えたエラーを生成する。
func PayloadTooLarge(cause error) *Error {
	return &Error{Kind: KindPayloadTooLarge, Status: http.StatusRequestEntityTooLarge, Message: MsgPayloadTooLarge, Cause: cause}
}

// UpstreamFailure は上流呼び出し失敗のエラーを生成する。
// statusが0の場合（レスポンスなし）は500になる。
func UpstreamFailure(status int, message string, cause error) *Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return &Error{Kind: KindUpstreamFailure, Status: status, Message: message, Cause: cause}
}

// NotFound は存在しないルートのエラーを生成する。
func NotFound() *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: MsgNotFound}
}

// Internal は内部エラーを生成する。詳細は呼び出し元に返されない。
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: MsgInternal, Cause: cause}
}
