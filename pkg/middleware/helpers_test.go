package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testSecret はテスト用のJWTシークレット。
const testSecret = "test-secret-key-for-unit-tests"

// errorBody は {"error": "..."} 形式のレスポンス。
type errorBody struct {
	Error string `json:"error"`
}

// fieldErrorsBody は {"errors": [...]} 形式のレスポンス。
type fieldErrorsBody struct {
	Errors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

// newTestRouter はErrorHandlerとRecoveryを組み込んだテスト用ルーターを生成する。
func newTestRouter() *gin.Engine {
	router := gin.New()
	router.Use(ErrorHandler(), Recovery())
	return router
}

// decodeBody はレスポンスボディをvにデコードする。
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("レスポンスボディのパースに失敗: %v (body=%s)", err, w.Body.String())
	}
}

// fieldSet はフィールドエラーのフィールド名集合を返す。
func fieldSet(body fieldErrorsBody) map[string]bool {
	set := make(map[string]bool, len(body.Errors))
	for _, e := range body.Errors {
		set[e.Field] = true
	}
	return set
}
