package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// HeaderRequestID はリクエストIDを伝播するHTTPヘッダーキー。
const HeaderRequestID = "X-Request-ID"

// healthPath はアクセスログを省略するヘルスチェックのパス。
const healthPath = "/health"

// RequestLogger はリクエストIDを払い出し、リクエスト単位のロガーを
// コンテキストに設定するGinミドルウェアを返す。
// 処理完了後にアクセスログを1行出力する。最初に登録すること。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		l := log.With().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("remote", c.ClientIP()).
			Logger()
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		if c.Request.URL.Path == healthPath && status < 400 {
			return
		}
		l.Info().
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("リクエストを処理しました")
	}
}

func globalLogger() *zerolog.Logger {
	return &log.Logger
}
