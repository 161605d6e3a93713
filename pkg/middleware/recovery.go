package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニック発生時にスタックトレースをログに出力し、内部エラーとして
// ErrorHandlerに引き渡す。ErrorHandlerより後に登録すること。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				loggerFrom(c).Error().
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msgf("[PANIC] %s %s", c.Request.Method, c.Request.URL.Path)
				Fail(c, fmt.Errorf("panic: %v", r))
			}
		}()
		c.Next()
	}
}
