package util

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator 错误信息中的字段名取 json 标签，与客户端看到的字段一致
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("conv_id", validConversationID)
	return v
}

// validConversationID 会话 ID 会拼进 Redis key，只允许字母、数字以及 - _ .
func validConversationID(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("-_.", r) {
			continue
		}
		return false
	}
	return true
}

// ValidateDTO 按 validate 标签校验结构体，仅返回第一条失败原因
func ValidateDTO(dto any) error {
	err := validate.Struct(dto)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) || len(vErrs) == 0 {
		return err
	}
	first := vErrs[0]
	if first.Param() != "" {
		return fmt.Errorf("字段 [%s] 校验失败，规则 [%s=%s]", first.Field(), first.Tag(), first.Param())
	}
	return fmt.Errorf("字段 [%s] 校验失败，规则 [%s]", first.Field(), first.Tag())
}
