package sanitizer

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy 去掉所有标签
var strictPolicy = bluemonday.StrictPolicy()

// Text 去掉所有 HTML，返回纯文本
// 用于商品名称、分类这类只能是纯文本的字段
func Text(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(input)))
}
