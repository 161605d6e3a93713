// Package gateway はユーザー管理ゲートウェイのHTTPサーバーを提供する。
//
// ログイン時のローカル認証とトークン発行、トークンとロールによるアクセス制御、
// 入力検証を行った上で、ユーザー管理操作を上流のIDプロバイダに転送する。
// トークン検証はルートグループのJWTAuthで行い、以降のステージは
// ルートごとにmiddleware.Pipelineで明示的に並べる。
// 失敗はmiddleware.ErrorHandlerが一箇所でレスポンスに変換する。
package gateway
