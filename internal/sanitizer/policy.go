package sanitizer

import "strings"

// Policy 元素/属性白名单
//
// 标签名统一按大写比较，属性名统一按小写比较。
// Policy 在首次使用后不应再修改。
type Policy struct {
	elements map[string]struct{}
	attrs    map[string]map[string]struct{}
}

// NewPolicy 创建空白名单（什么都不允许）
func NewPolicy() *Policy {
	return &Policy{
		elements: make(map[string]struct{}),
		attrs:    make(map[string]map[string]struct{}),
	}
}

// DefaultPolicy 商品描述使用的白名单
func DefaultPolicy() *Policy {
	return NewPolicy().
		AllowElements(
			// 文本格式
			"A", "B", "STRONG", "EM", "I", "U", "SPAN",
			// 段落与换行
			"P", "BR",
			// 列表
			"UL", "OL", "LI",
			// 标题
			"H1", "H2", "H3", "H4", "H5", "H6",
		).
		AllowAttrs("A", "href", "title", "target", "rel").
		AllowAttrs("SPAN", "style")
}

// AllowElements 允许标签
func (p *Policy) AllowElements(tags ...string) *Policy {
	for _, tag := range tags {
		p.elements[strings.ToUpper(tag)] = struct{}{}
	}
	return p
}

// AllowAttrs 允许某个标签上的属性
func (p *Policy) AllowAttrs(tag string, names ...string) *Policy {
	tag = strings.ToUpper(tag)
	set, ok := p.attrs[tag]
	if !ok {
		set = make(map[string]struct{}, len(names))
		p.attrs[tag] = set
	}
	for _, name := range names {
		set[strings.ToLower(name)] = struct{}{}
	}
	return p
}

// AllowsElement 标签是否在白名单中
func (p *Policy) AllowsElement(tag string) bool {
	_, ok := p.elements[strings.ToUpper(tag)]
	return ok
}

// AllowsAttr 属性是否允许出现在该标签上
func (p *Policy) AllowsAttr(tag, name string) bool {
	set, ok := p.attrs[strings.ToUpper(tag)]
	if !ok {
		return false
	}
	_, ok = set[strings.ToLower(name)]
	return ok
}
