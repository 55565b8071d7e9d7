package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Outline renders the children of n as a compact, whitespace-insensitive
// description used by tests and by the CLI's outline format:
//
//	h1("before") div[id=flagged]("first 0") template h1("after")
//
// Blank text nodes and comments are skipped, and <template> contents are
// elided because they are never rendered.
func Outline(n *html.Node) string {
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if s := outlineNode(c); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func outlineNode(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return ""
		}
		return strconv.Quote(text)
	case html.ElementNode:
		var sb strings.Builder
		sb.WriteString(n.Data)
		if len(n.Attr) > 0 {
			sb.WriteByte('[')
			for i, a := range n.Attr {
				if i > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(a.Key)
				sb.WriteByte('=')
				sb.WriteString(a.Val)
			}
			sb.WriteByte(']')
		}
		if n.Data == "template" {
			return sb.String()
		}
		if inner := Outline(n); inner != "" {
			sb.WriteByte('(')
			sb.WriteString(inner)
			sb.WriteByte(')')
		}
		return sb.String()
	case html.DocumentNode:
		return Outline(n)
	}
	return ""
}
