package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/nao1215/usergate/pkg/apperror"
)

var testIdentity = Identity{ID: "1", Username: "admin", Role: RoleAdmin}

// newVerifyRouter はVerifyTokenで保護された/testを持つルーターを生成する。
// ハンドラは取得した身元情報をJSONで返す。
func newVerifyRouter() *gin.Engine {
	router := newTestRouter()
	router.GET("/test", Pipeline(VerifyToken(testSecret), func(c *gin.Context) error {
		identity, ok := GetIdentity(c)
		if !ok {
			return apperror.Internal(nil)
		}
		c.JSON(http.StatusOK, identity)
		return nil
	}))
	return router
}

// TestGenerateJWT はGenerateJWT関数を検証する。
func TestGenerateJWT(t *testing.T) {
	t.Parallel()

	t.Run("身元情報を含むトークンを生成できること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateJWT(testSecret, testIdentity)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		got, err := ParseJWT(testSecret, tokenStr)
		if err != nil {
			t.Fatalf("ParseJWT()でエラーが発生: %v", err)
		}
		if got != testIdentity {
			t.Errorf("Identity = %+v, want %+v", got, testIdentity)
		}
	})

	t.Run("有効期限が発行から1時間後であること", func(t *testing.T) {
		t.Parallel()

		before := time.Now()
		tokenStr, err := GenerateJWT(testSecret, testIdentity)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		claims := &JWTClaims{}
		if _, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
			return []byte(testSecret), nil
		}); err != nil {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}

		expected := before.Add(time.Hour)
		if claims.ExpiresAt.Time.Before(expected.Add(-time.Minute)) || claims.ExpiresAt.Time.After(expected.Add(time.Minute)) {
			t.Errorf("ExpiresAt = %v, want about %v", claims.ExpiresAt.Time, expected)
		}
		if claims.Subject != testIdentity.ID {
			t.Errorf("Subject = %q, want %q", claims.Subject, testIdentity.ID)
		}
	})

	t.Run("署名アルゴリズムがHS256であること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateJWT(testSecret, testIdentity)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		token, _, err := new(jwt.Parser).ParseUnverified(tokenStr, &JWTClaims{})
		if err != nil {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}
		if token.Method.Alg() != "HS256" {
			t.Errorf("署名アルゴリズム = %q, want %q", token.Method.Alg(), "HS256")
		}
	})
}

// TestParseJWT はParseJWT関数の拒否条件を検証する。
func TestParseJWT(t *testing.T) {
	t.Parallel()

	t.Run("異なるシークレットで署名されたトークンを拒否すること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateJWT("other-secret", testIdentity)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}
		if _, err := ParseJWT(testSecret, tokenStr); err == nil {
			t.Fatal("異なるシークレットのトークンがエラーを返すべき")
		}
	})

	t.Run("期限切れトークンを拒否すること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := generateJWTAt(testSecret, testIdentity, time.Now().Add(-2*time.Hour))
		if err != nil {
			t.Fatalf("generateJWTAt()でエラーが発生: %v", err)
		}
		if _, err := ParseJWT(testSecret, tokenStr); err == nil {
			t.Fatal("期限切れトークンがエラーを返すべき")
		}
	})

	t.Run("有効期限のないトークンを拒否すること", func(t *testing.T) {
		t.Parallel()

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{UserID: "1", Role: RoleAdmin})
		tokenStr, err := token.SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("トークンの署名に失敗: %v", err)
		}
		if _, err := ParseJWT(testSecret, tokenStr); err == nil {
			t.Fatal("有効期限のないトークンがエラーを返すべき")
		}
	})

	t.Run("HS256以外の署名方式を拒否すること", func(t *testing.T) {
		t.Parallel()

		claims := JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
			UserID:           "1",
			Role:             RoleAdmin,
		}
		tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("トークンの署名に失敗: %v", err)
		}
		if _, err := ParseJWT(testSecret, tokenStr); err == nil {
			t.Fatal("HS512のトークンがエラーを返すべき")
		}
	})

	t.Run("形式が不正なトークンを拒否すること", func(t *testing.T) {
		t.Parallel()

		if _, err := ParseJWT(testSecret, "not.a.jwt"); err == nil {
			t.Fatal("不正な形式のトークンがエラーを返すべき")
		}
	})
}

// TestVerifyToken はVerifyTokenステージを検証する。
func TestVerifyToken(t *testing.T) {
	t.Parallel()

	validToken, err := GenerateJWT(testSecret, testIdentity)
	if err != nil {
		t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
	}
	otherSecretToken, err := GenerateJWT("other-secret", testIdentity)
	if err != nil {
		t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
	}
	expiredToken, err := generateJWTAt(testSecret, testIdentity, time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("generateJWTAt()でエラーが発生: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"Authorizationヘッダーが無い場合401が返ること", "", http.StatusUnauthorized, apperror.MsgAuthenticationRequired},
		{"Bearer接頭辞が無い場合401が返ること", validToken, http.StatusUnauthorized, apperror.MsgAuthenticationRequired},
		{"Bearerのみでトークンが空の場合401が返ること", "Bearer ", http.StatusUnauthorized, apperror.MsgAuthenticationRequired},
		{"形式が不正なトークンで403が返ること", "Bearer invalid.token", http.StatusForbidden, apperror.MsgInvalidToken},
		{"異なるシークレットで署名されたトークンで403が返ること", "Bearer " + otherSecretToken, http.StatusForbidden, apperror.MsgInvalidToken},
		{"期限切れトークンで403が返ること", "Bearer " + expiredToken, http.StatusForbidden, apperror.MsgInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newVerifyRouter()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ステータスコード = %d, want %d", w.Code, tt.wantStatus)
			}
			var body errorBody
			decodeBody(t, w, &body)
			if body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
		})
	}

	t.Run("有効なトークンで身元情報がコンテキストに設定されること", func(t *testing.T) {
		t.Parallel()

		router := newVerifyRouter()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+validToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d (body=%s)", w.Code, http.StatusOK, w.Body.String())
		}
		var got Identity
		decodeBody(t, w, &got)
		if got != testIdentity {
			t.Errorf("Identity = %+v, want %+v", got, testIdentity)
		}
	})

	t.Run("スキーム名の大文字小文字を区別しないこと", func(t *testing.T) {
		t.Parallel()

		router := newVerifyRouter()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "bearer "+validToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
	})
}

// TestGetIdentity はGetIdentity関数を検証する。
func TestGetIdentity(t *testing.T) {
	t.Parallel()

	t.Run("身元情報が設定されていない場合falseが返ること", func(t *testing.T) {
		t.Parallel()

		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		if _, ok := GetIdentity(c); ok {
			t.Error("GetIdentity()がtrueを返した")
		}
	})

	t.Run("身元情報が別の型の場合falseが返ること", func(t *testing.T) {
		t.Parallel()

		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(contextKeyIdentity, "admin")
		if _, ok := GetIdentity(c); ok {
			t.Error("GetIdentity()がtrueを返した")
		}
	})

	t.Run("JWTAuthミドルウェア経由で身元情報を取得できること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateJWT(testSecret, testIdentity)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		var captured Identity
		router := newTestRouter()
		router.Use(JWTAuth(testSecret))
		router.GET("/test", func(c *gin.Context) {
			captured, _ = GetIdentity(c)
			c.Status(http.StatusNoContent)
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusNoContent)
		}
		if captured != testIdentity {
			t.Errorf("Identity = %+v, want %+v", captured, testIdentity)
		}
	})
}
