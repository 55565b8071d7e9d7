// Package dom holds the small set of host tree operations the binding engine
// needs on top of golang.org/x/net/html: parsing, deep cloning, attribute
// access, sibling navigation and checked insert/replace/remove helpers.
//
// The checked helpers return ErrDetached instead of panicking when the tree
// no longer has the shape the caller expects, which happens when the tree is
// mutated outside the engine.
package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrDetached is returned when a node is not where a mutation expects it.
var ErrDetached = errors.New("dom: node is detached from its expected parent")

// Parse parses a complete HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parsing document: %w", err)
	}
	return doc, nil
}

// ParseBody parses an HTML fragment in a <body> context and returns a
// detached <body> element holding the parsed nodes.
func ParseBody(markup string) (*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return nil, fmt.Errorf("dom: parsing fragment: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return body, nil
}

// Render serializes n and its subtree.
func Render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("dom: rendering: %w", err)
	}
	return buf.String(), nil
}

// RenderChildren serializes the children of n without n itself.
func RenderChildren(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("dom: rendering: %w", err)
		}
	}
	return buf.String(), nil
}

// Find returns the first element in n's subtree (n included) with the given tag.
func Find(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := Find(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// Attr returns the value of the named attribute and whether it is present.
func Attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets the named attribute, appending it when missing.
func SetAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes the named attribute if present.
func RemoveAttr(n *html.Node, name string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// NextElementSibling skips text, comment and other non-element siblings.
func NextElementSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// ElementChild returns the index-th element child of n, or nil.
func ElementChild(n *html.Node, index int) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if index == 0 {
			return c
		}
		index--
	}
	return nil
}

// Clone deep-copies n. The copy has no parent or siblings.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// NewText creates a detached text node.
func NewText(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

// NewPlaceholder creates the empty <template> element used to anchor
// repeated and conditional regions.
func NewPlaceholder() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "template", DataAtom: atom.Template}
}

// InsertBefore inserts a detached node before ref in ref's parent.
func InsertBefore(n, ref *html.Node) error {
	if ref.Parent == nil {
		return fmt.Errorf("%w: insertion anchor <%s> has no parent", ErrDetached, ref.Data)
	}
	if n.Parent != nil {
		return fmt.Errorf("%w: node <%s> is already attached", ErrDetached, n.Data)
	}
	ref.Parent.InsertBefore(n, ref)
	return nil
}

// Replace swaps old for n inside parent.
func Replace(parent, n, old *html.Node) error {
	if old.Parent != parent {
		return fmt.Errorf("%w: replaced node is not a child of <%s>", ErrDetached, parent.Data)
	}
	parent.InsertBefore(n, old)
	parent.RemoveChild(old)
	return nil
}

// Remove detaches n from parent.
func Remove(parent, n *html.Node) error {
	if n.Parent != parent {
		return fmt.Errorf("%w: removed node <%s> is not a child of <%s>", ErrDetached, n.Data, parent.Data)
	}
	parent.RemoveChild(n)
	return nil
}

// Move detaches n from its current parent (if any) and appends it to dst.
func Move(n, dst *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	dst.AppendChild(n)
}
