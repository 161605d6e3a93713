package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/nao1215/usergate/pkg/apperror"
)

// 検証済みのリクエストをGinコンテキストに格納するキー。
const (
	contextKeyBody  = "validated_body"
	contextKeyQuery = "validated_query"
)

// bodyField はボディ全体の形式エラーに使用するフィールド名。
const bodyField = "body"

// MaxBodySize はValidateJSONが受け付けるリクエストボディの上限バイト数。
const MaxBodySize = 100 << 10

var setupValidatorOnce sync.Once

// setupValidator はGinのバリデータにフィールド名の解決方法と独自ルールを登録する。
// エラーのフィールド名はGoの構造体名ではなくjson/formタグの名前を使う。
func setupValidator() {
	setupValidatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		// integer/int_min/int_max は文字列で受け取ったクエリパラメータを整数として検証する。
		_ = v.RegisterValidation("integer", isInteger)
		_ = v.RegisterValidation("int_min", intBound(func(n, bound int) bool { return n >= bound }))
		_ = v.RegisterValidation("int_max", intBound(func(n, bound int) bool { return n <= bound }))
	})
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// isInteger は値が符号付き10進整数として解釈でき、intの範囲に収まることを確認する。
// 先頭の+/-は許可する。
func isInteger(fl validator.FieldLevel) bool {
	_, err := strconv.Atoi(fl.Field().String())
	return err == nil
}

func intBound(cmp func(n, bound int) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Field().String())
		if err != nil {
			return false
		}
		bound, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return cmp(n, bound)
	}
}

// ValidateJSON はJSONボディをTにデコードし、bindingタグのルールで検証するステージを返す。
// すべてのルールを評価し、違反があれば違反の一覧を持つ400エラーを返す。
// ボディが空の場合はTのゼロ値に対してルールを評価する。
// MaxBodySizeを超えるボディは読み込みを打ち切り413を返す。
// 検証済みの値はBodyで取り出せる。
func ValidateJSON[T any]() Stage {
	setupValidator()
	return func(c *gin.Context) error {
		var req T

		var raw []byte
		if c.Request.Body != nil {
			b, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodySize))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					return apperror.PayloadTooLarge(err)
				}
				return fmt.Errorf("リクエストボディの読み込みに失敗: %w", err)
			}
			raw = b
		}

		var err error
		if len(bytes.TrimSpace(raw)) == 0 {
			err = binding.Validator.ValidateStruct(&req)
		} else {
			err = binding.JSON.BindBody(raw, &req)
		}
		if err != nil {
			return toValidationError(err)
		}

		c.Set(contextKeyBody, &req)
		return nil
	}
}

// ValidateQuery はクエリパラメータをTにマッピングし、bindingタグのルールで検証するステージを返す。
// スライス以外のフィールドに対応するキーが複数回指定された場合も違反として報告する。
// 検証済みの値はQueryで取り出せる。
func ValidateQuery[T any]() Stage {
	setupValidator()
	return func(c *gin.Context) error {
		var req T
		fields := repeatedQueryKeys(reflect.TypeFor[T](), c.Request.URL.Query())
		if err := c.ShouldBindQuery(&req); err != nil {
			fields = append(fields, toValidationError(err).Fields...)
		}
		if len(fields) > 0 {
			return apperror.ValidationFailed(fields)
		}
		c.Set(contextKeyQuery, &req)
		return nil
	}
}

// repeatedQueryKeys は単一値のフィールドに対して複数の値が渡されたキーを返す。
func repeatedQueryKeys(typ reflect.Type, query url.Values) []apperror.FieldError {
	if typ.Kind() != reflect.Struct {
		return nil
	}
	var fields []apperror.FieldError
	for i := range typ.NumField() {
		fld := typ.Field(i)
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "" || name == "-" || fld.Type.Kind() == reflect.Slice {
			continue
		}
		if len(query[name]) > 1 {
			fields = append(fields, apperror.FieldError{
				Field:   name,
				Message: name + " must not be specified more than once",
			})
		}
	}
	return fields
}

// Body はValidateJSONが格納した検証済みボディを取り出す。
func Body[T any](c *gin.Context) (*T, bool) {
	return lookup[T](c, contextKeyBody)
}

// Query はValidateQueryが格納した検証済みクエリを取り出す。
func Query[T any](c *gin.Context) (*T, bool) {
	return lookup[T](c, contextKeyQuery)
}

func lookup[T any](c *gin.Context, key string) (*T, bool) {
	v, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	req, ok := v.(*T)
	return req, ok
}

// toValidationError はバインド・検証時のエラーをフィールドエラー一覧に変換する。
func toValidationError(err error) *apperror.Error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apperror.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apperror.FieldError{
				Field:   fe.Field(),
				Message: fieldMessage(fe),
			})
		}
		return apperror.ValidationFailed(fields)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperror.ValidationFailed([]apperror.FieldError{{
			Field:   typeErr.Field,
			Message: typeErr.Field + " has an invalid type",
		}})
	}

	return apperror.ValidationFailed([]apperror.FieldError{{
		Field:   bodyField,
		Message: "request body must be a valid JSON object",
	}})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "integer":
		return fe.Field() + " must be a valid integer"
	case "int_min":
		return fmt.Sprintf("%s must be an integer greater than or equal to %s", fe.Field(), fe.Param())
	case "int_max":
		return fmt.Sprintf("%s must be an integer less than or equal to %s", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}
