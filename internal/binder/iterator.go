package binder

import (
	"context"
	"regexp"

	"golang.org/x/net/html"

	"github.com/vk/viewbind/internal/dom"
	"github.com/vk/viewbind/internal/expr"
)

// forPattern matches "item of source" and "item, index of source".
var forPattern = regexp.MustCompile(`^\s*(\w+)(?:\s*,\s*(\w+))?\s+of\s(.*)`)

// bindIterator reserves a {{for}} region.
//
// Reconciliation is positional and not keyed: the instance at position k
// is reused for the k-th item whatever that item is. Instances carry no
// identity beyond their index, so reordering a list rebinds clones in
// place instead of moving them, and out-of-band changes made to a kept
// clone (an attribute set by hand, say) stay on that position.
func (w *walker) bindIterator(n *html.Node, source string) *html.Node {
	m := forPattern.FindStringSubmatch(source)
	if m == nil {
		return w.ignore(n, DirectiveFor, source, "malformed syntax")
	}
	valueName, indexName := m[1], m[2]
	items := expr.CompileValue(w.binder.compiler, m[3])
	if items == nil {
		return w.ignore(n, DirectiveFor, source, "source does not compile")
	}
	if n.Parent == nil {
		return w.ignore(n, DirectiveFor, source, "element has no parent")
	}

	// Clones are bound as detached roots, where a conditional cannot
	// reserve itself.
	if cond, ok := dom.Attr(n, DirectiveIf); ok {
		w.ignore(n, DirectiveIf, cond, "element also carries "+DirectiveFor)
		dom.RemoveAttr(n, DirectiveIf)
	}

	b := w.binder
	t := reserve(n, DirectiveFor)
	var instances []*Instance

	w.push(func(ctx context.Context, scope *expr.Scope, changes *Changes) error {
		saved := instances
		changes.OnAbort(func() { instances = saved })

		list, err := materialize(ctx, items(scope))
		if err != nil {
			return err
		}
		for index, item := range list {
			if index == len(instances) {
				instances = append(instances, b.instantiate(t, changes, 0))
			}
			locals := map[string]any{valueName: item}
			if indexName != "" {
				locals[indexName] = index
			}
			if err := Collect(ctx, instances[index].Bindings, scope.With(locals), changes); err != nil {
				return err
			}
		}
		if len(list) < len(instances) {
			t.dispose(instances[len(list):], changes)
			instances = instances[:len(list)]
		}
		return nil
	})
	return t.placeholder
}
