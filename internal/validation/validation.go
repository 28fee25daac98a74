// Package validation 表单校验
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error 字段校验失败，Fields 为 json 字段名到提示语的映射
type Error struct {
	Fields map[string]string `json:"fields"`
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add 添加字段错误（同一字段只保留第一条）
func (e *Error) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors 是否有字段错误
func (e *Error) HasErrors() bool {
	return len(e.Fields) > 0
}

// MessageFunc 把单个字段错误翻译成提示语
type MessageFunc func(fe validator.FieldError) string

// New 创建校验器，字段名使用 json tag，并注册 weburl 规则
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// 只在 New 内部注册，名称固定，不会出错
	_ = v.RegisterValidation("weburl", func(fl validator.FieldLevel) bool {
		return IsWebURL(fl.Field().String())
	})
	return v
}

// Struct 校验结构体，失败时返回 *Error
func Struct(v *validator.Validate, s any, message MessageFunc) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &Error{}
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

// IsWebURL http/https 绝对地址或站内路径
func IsWebURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		_, err := url.Parse(raw)
		return err == nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
