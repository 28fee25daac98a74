package sanitizer

import (
	"strings"

	"golang.org/x/net/html"
)

// 不输出结束标签的元素
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// renderChildren 序列化 root 的所有子节点（相当于 innerHTML）
func renderChildren(root *html.Node) string {
	var sb strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		renderNode(&sb, c)
	}
	return sb.String()
}

func renderNode(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(html.EscapeString(n.Data))

	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		sb.WriteByte('<')
		sb.WriteString(tag)
		for _, a := range n.Attr {
			sb.WriteByte(' ')
			sb.WriteString(a.Key)
			sb.WriteString(`="`)
			sb.WriteString(html.EscapeString(a.Val))
			sb.WriteByte('"')
		}
		sb.WriteByte('>')
		if voidElements[tag] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			renderNode(sb, c)
		}
		sb.WriteString("</")
		sb.WriteString(tag)
		sb.WriteByte('>')

	default:
		// 注释、doctype 等在遍历阶段已处理，这里直接丢弃
	}
}
