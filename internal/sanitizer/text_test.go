package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "空字符串", input: "", expected: ""},
		{name: "纯文本", input: "Netflix Premium", expected: "Netflix Premium"},
		{name: "保留 & 符号", input: "Tom & Jerry", expected: "Tom & Jerry"},
		{name: "去掉格式标签", input: "<b>Mr.</b> Premium", expected: "Mr. Premium"},
		{name: "去掉 script", input: "<script>alert(1)</script>Name", expected: "Name"},
		{name: "去掉事件属性", input: `<span onclick="x()">Click</span>`, expected: "Click"},
		{name: "首尾空白", input: "  Spotify  ", expected: "Spotify"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Text(tt.input))
		})
	}
}

func TestEscapeText(t *testing.T) {
	assert.Equal(t, "a<br>b<br>", EscapeText("a\nb\n"))
	assert.Equal(t, "&lt;b&gt;", EscapeText("<b>"))
	assert.Equal(t, "&amp;amp;", EscapeText("&amp;"))
}

func TestPolicy(t *testing.T) {
	p := DefaultPolicy()

	for _, tag := range []string{"a", "B", "strong", "EM", "i", "u", "p", "br", "ul", "ol", "li", "h1", "h6", "span"} {
		assert.True(t, p.AllowsElement(tag), tag)
	}
	for _, tag := range []string{"div", "script", "img", "iframe", "table", "h7"} {
		assert.False(t, p.AllowsElement(tag), tag)
	}

	assert.True(t, p.AllowsAttr("a", "HREF"))
	assert.True(t, p.AllowsAttr("A", "rel"))
	assert.True(t, p.AllowsAttr("span", "style"))
	assert.False(t, p.AllowsAttr("span", "class"))
	assert.False(t, p.AllowsAttr("p", "style"))
	assert.False(t, p.AllowsAttr("b", "title"))
}
