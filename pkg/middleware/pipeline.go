package middleware

import (
	"github.com/gin-gonic/gin"
)

// Stage はリクエスト処理パイプラインの1ステージ。
// nilを返すと次のステージへ進み、エラーを返すとパイプラインを終了する。
type Stage func(c *gin.Context) error

// Pipeline は渡されたステージを順番に実行するGinハンドラを返す。
// 最初に失敗したステージのエラーをコンテキストに積み、後続の処理を中断する。
// レスポンスの書き込みはErrorHandlerに任せる。
func Pipeline(stages ...Stage) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, stage := range stages {
			if err := stage(c); err != nil {
				Fail(c, err)
				return
			}
		}
	}
}

// Fail はエラーをコンテキストに登録し、以降のハンドラ実行を中断する。
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
