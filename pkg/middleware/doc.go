// Package middleware はGinベースのHTTP APIで使用するリクエスト処理パイプラインを提供する。
//
// ステージはerrorを返す関数として表現し、Pipelineが登録順に実行する。
// 入力検証、JWT認証トークンの検証、ロールによるアクセス制御を含み、
// いずれかのステージが失敗した時点で以降の処理は打ち切られる。
// 失敗はすべてErrorHandlerが一箇所でHTTPレスポンスに変換する。
// その他、リクエストログ、パニックリカバリ、CORS設定を含む。
package middleware
