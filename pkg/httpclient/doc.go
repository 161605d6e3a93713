// Package httpclient は上流のIDプロバイダREST APIと通信するHTTPクライアントを提供する。
//
// すべてのリクエストにサービス用のBearerトークン（エンドユーザーのトークンとは別物）を付与する。
// 2xx以外のレスポンスはStatusErrorとして返し、呼び出し側でステータスを引き継げるようにする。
package httpclient
