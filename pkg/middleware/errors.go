package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nao1215/usergate/pkg/apperror"
)

// ErrorHandler はパイプラインで発生したエラーをHTTPレスポンスに変換するGinミドルウェアを返す。
// 他のどのミドルウェアよりも先（RequestLoggerの直後）に登録すること。
//
// apperror.Errorはそのステータスとメッセージで応答し、入力検証エラーは
// {"errors": [...]}、それ以外は{"error": "..."}の形で返す。
// 認識できないエラーは詳細を隠して500を返す。
// すべてのエラーはレスポンスを書く前に詳細付きでログに出力する。
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		last := c.Errors.Last().Err
		appErr := apperror.As(last)
		if appErr == nil {
			appErr = apperror.Internal(last)
		}

		logger := loggerFrom(c)
		for _, ginErr := range c.Errors {
			ev := logger.Warn()
			if appErr.Status >= http.StatusInternalServerError {
				ev = logger.Error()
			}
			ev.Err(ginErr.Err).
				Str("kind", string(appErr.Kind)).
				Int("status", appErr.Status).
				Msg("リクエストの処理に失敗しました")
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(appErr.Status, responseBody(appErr))
	}
}

// responseBody は呼び出し元に返すエラーボディを組み立てる。
func responseBody(appErr *apperror.Error) gin.H {
	if appErr.Kind == apperror.KindValidationFailed {
		fields := appErr.Fields
		if fields == nil {
			fields = []apperror.FieldError{}
		}
		return gin.H{"errors": fields}
	}
	return gin.H{"error": appErr.Message}
}

// loggerFrom はリクエストに紐づくロガーを返す。
// RequestLoggerを通っていない場合はグローバルロガーを使う。
func loggerFrom(c *gin.Context) *zerolog.Logger {
	l := zerolog.Ctx(c.Request.Context())
	if l.GetLevel() == zerolog.Disabled {
		return globalLogger()
	}
	return l
}
