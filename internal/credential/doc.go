// Package credential はローカル認証に使用する静的な認証情報レコードを提供する。
//
// レコードは起動時にYAML/JSONファイルまたはSQLiteデータベースから一度だけ読み込み、
// 以降は読み取り専用のMemoryStoreとして全リクエストで共有する。
// 実行中にレコードを追加・変更する手段は持たない。
package credential
