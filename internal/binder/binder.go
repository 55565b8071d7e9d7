// Package binder compiles an HTML tree into Bindings and reconciles it
// against a data scope in two phases: Bindings push deferred Changes while
// they are collected, and Changes.Apply is the only place the tree mutates.
//
// Repeated regions ({{for}}) and conditional regions ({{if}}, {{elseif}},
// {{else}}) are reserved behind a <template> placeholder and materialized
// as Instances, each a clone of the stored element with its own Bindings.
// {{for}} takes precedence over {{if}}: an element carrying both is
// repeated, and its {{if}} attribute is dropped. Wrap the element to
// repeat it conditionally.
package binder

import (
	"context"
	"log/slog"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vk/viewbind/internal/dom"
	"github.com/vk/viewbind/internal/expr"
)

// Directive attribute names.
const (
	DirectiveFor    = "{{for}}"
	DirectiveIf     = "{{if}}"
	DirectiveElseIf = "{{elseif}}"
	DirectiveElse   = "{{else}}"
)

// Binding evaluates its expressions against scope and, when the result
// differs from the last observed one, records it and pushes a Change.
type Binding func(ctx context.Context, scope *expr.Scope, changes *Changes) error

// Binder turns trees into Bindings using one expression compiler.
type Binder struct {
	compiler expr.Compiler
	logger   *slog.Logger
}

// New creates a Binder. A nil logger falls back to slog.Default().
func New(compiler expr.Compiler, logger *slog.Logger) *Binder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Binder{compiler: compiler, logger: logger}
}

// Parse walks root in pre-order and returns its Bindings in document
// order. Directive regions are reserved in place as a side effect.
func (b *Binder) Parse(root *html.Node) []Binding {
	w := &walker{binder: b}
	w.traverse(root)
	return w.bindings
}

type walker struct {
	binder   *Binder
	bindings []Binding
}

// traverse binds n and returns the node now standing at n's position:
// the placeholder when n was reserved by a directive, n otherwise.
func (w *walker) traverse(n *html.Node) *html.Node {
	switch n.Type {
	case html.TextNode:
		w.bindText(n)
	case html.DocumentNode:
		w.traverseChildren(n)
	case html.ElementNode:
		if source, ok := dom.Attr(n, DirectiveFor); ok && source != "" {
			return w.bindIterator(n, source)
		}
		if source, ok := dom.Attr(n, DirectiveIf); ok && source != "" {
			return w.bindConditional(n, source)
		}
		for _, a := range n.Attr {
			if a.Namespace == "" {
				w.bindAttribute(n, a.Key, a.Val)
			}
		}
		// Template contents are inert.
		if n.DataAtom != atom.Template {
			w.traverseChildren(n)
		}
	}
	return n
}

func (w *walker) traverseChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		c = w.traverse(c).NextSibling
	}
}

func (w *walker) push(binding Binding) {
	w.bindings = append(w.bindings, binding)
}

// bindText replaces the text node with a fresh one on every change.
func (w *walker) bindText(n *html.Node) {
	eval := expr.Compile(w.binder.compiler, n.Data)
	if eval == nil {
		return
	}
	parent := n.Parent
	current := n
	var (
		value string
		seen  bool
	)
	w.push(func(_ context.Context, scope *expr.Scope, changes *Changes) error {
		next := expr.ToString(eval(scope))
		if seen && next == value {
			return nil
		}
		prevValue, prevSeen := value, seen
		value, seen = next, true
		changes.OnAbort(func() { value, seen = prevValue, prevSeen })
		changes.Push(func() error {
			if parent == nil {
				current.Data = next
				return nil
			}
			replacement := dom.NewText(next)
			if err := dom.Replace(parent, replacement, current); err != nil {
				return err
			}
			current = replacement
			return nil
		})
		return nil
	})
}

func (w *walker) bindAttribute(n *html.Node, name, source string) {
	eval := expr.Compile(w.binder.compiler, source)
	if eval == nil {
		return
	}
	var (
		value string
		seen  bool
	)
	w.push(func(_ context.Context, scope *expr.Scope, changes *Changes) error {
		next := expr.ToString(eval(scope))
		if seen && next == value {
			return nil
		}
		prevValue, prevSeen := value, seen
		value, seen = next, true
		changes.OnAbort(func() { value, seen = prevValue, prevSeen })
		changes.Push(func() error {
			dom.SetAttr(n, name, next)
			return nil
		})
		return nil
	})
}

func (w *walker) ignore(n *html.Node, directive, source, reason string) *html.Node {
	w.binder.logger.Debug("Ignoring directive.", "element", n.Data, "directive", directive, "value", source, "reason", reason)
	return n
}
