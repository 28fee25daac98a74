// Package sanitizer 商品描述 HTML 净化
//
// 管理员录入的商品描述可能是纯文本，也可能带少量排版标签。
// 输出会被直接注入页面，因此这里是唯一的安全边界：
// 只保留白名单中的标签和属性，链接只允许 http/https。
package sanitizer

import (
	"html/template"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	linkRel    = "noopener noreferrer"
	linkTarget = "_blank"
)

var (
	// 只要出现 <...> 就按 HTML 处理
	tagPattern = regexp.MustCompile(`<[^>]+>`)
	// href 只允许 http/https
	safeHref = regexp.MustCompile(`(?i)^https?://`)
)

// Sanitizer HTML 净化器
type Sanitizer struct {
	policy *Policy
}

// New 创建净化器，policy 为 nil 时使用 DefaultPolicy
func New(policy *Policy) *Sanitizer {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Sanitizer{policy: policy}
}

// Policy 返回当前白名单
func (s *Sanitizer) Policy() *Policy {
	return s.policy
}

// Sanitize 净化 HTML
//
// 纯文本会被转义并把换行转成 <br>；HTML 片段会被解析成独立的节点树，
// 逐个节点按白名单过滤后重新序列化。不会返回错误，异常输入退化为转义文本。
func (s *Sanitizer) Sanitize(input string) string {
	if input == "" {
		return ""
	}
	// 非法 UTF-8 字节按浏览器解析的方式替换成 U+FFFD
	input = strings.ToValidUTF8(input, "\uFFFD")

	if !LooksLikeHTML(input) {
		return EscapeText(input)
	}

	root, err := parseFragment(strings.TrimSpace(input))
	if err != nil {
		return EscapeText(input)
	}

	doc := goquery.NewDocumentFromNode(root)
	s.walk(doc.Selection)

	return renderChildren(root)
}

// walk 前序遍历；Contents 返回子节点快照，遍历过程中替换/删除节点不会漏掉兄弟节点
func (s *Sanitizer) walk(sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		n := child.Get(0)

		switch n.Type {
		case html.CommentNode:
			child.Remove()
			return

		case html.ElementNode:
			tag := strings.ToUpper(n.Data)
			if !s.policy.AllowsElement(tag) {
				// 不在白名单中：整个元素换成它的纯文本
				child.ReplaceWithNodes(&html.Node{
					Type: html.TextNode,
					Data: child.Text(),
				})
				return
			}
			s.filterAttrs(child, tag)
		}

		s.walk(child)
	})
}

// filterAttrs 过滤属性，保留的属性维持原有顺序；rel/target 已存在时原地改写，否则追加
func (s *Sanitizer) filterAttrs(sel *goquery.Selection, tag string) {
	n := sel.Get(0)
	kept := make([]html.Attribute, 0, len(n.Attr))
	hasSafeHref := false

	for _, attr := range n.Attr {
		name := strings.ToLower(attr.Key)

		// 事件处理器
		if strings.HasPrefix(name, "on") {
			continue
		}
		if !s.policy.AllowsAttr(tag, name) {
			continue
		}
		if tag == "A" && name == "href" {
			if !safeHref.MatchString(strings.TrimSpace(attr.Val)) {
				continue
			}
			hasSafeHref = true
		}
		kept = append(kept, attr)
	}
	n.Attr = kept

	if hasSafeHref {
		setAttr(n, "rel", linkRel)
		if target, ok := getAttr(n, "target"); !ok || strings.TrimSpace(target) == "" {
			setAttr(n, "target", linkTarget)
		}
	}
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if strings.EqualFold(n.Attr[i].Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// SanitizeToHTML 净化后直接用于 html/template
func (s *Sanitizer) SanitizeToHTML(input string) template.HTML {
	return template.HTML(s.Sanitize(input))
}

// parseFragment 以 <body> 为上下文解析片段，返回挂好子节点的根节点
func parseFragment(input string) (*html.Node, error) {
	root := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}

	nodes, err := html.ParseFragment(strings.NewReader(input), root)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

// LooksLikeHTML 是否包含类似标签的内容
func LooksLikeHTML(input string) bool {
	return tagPattern.MatchString(input)
}

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"\n", "<br>",
)

// EscapeText 纯文本转义，换行转成 <br>
func EscapeText(input string) string {
	return textEscaper.Replace(input)
}

// 默认净化器实例
var defaultSanitizer = New(DefaultPolicy())

// Sanitize 使用默认净化器净化 HTML
func Sanitize(input string) string {
	return defaultSanitizer.Sanitize(input)
}

// SanitizeBytes 使用默认净化器净化字节切片
func SanitizeBytes(input []byte) []byte {
	if len(input) == 0 {
		return input
	}
	return []byte(defaultSanitizer.Sanitize(string(input)))
}

// SanitizeToHTML 使用默认净化器，返回 template.HTML
func SanitizeToHTML(input string) template.HTML {
	return defaultSanitizer.SanitizeToHTML(input)
}
