package binder

import (
	"context"

	"golang.org/x/net/html"

	"github.com/vk/viewbind/internal/dom"
	"github.com/vk/viewbind/internal/expr"
)

type link struct {
	guard    expr.Evaluator
	instance *Instance
}

func always(*expr.Scope) any { return true }

// bindConditional reserves an {{if}} element together with the {{elseif}}
// and {{else}} element siblings that follow it. The whole chain is stored
// under the {{if}} placeholder, in chain order, so the active branch
// always renders where the {{if}} element was written.
func (w *walker) bindConditional(n *html.Node, source string) *html.Node {
	guard := expr.CompileValue(w.binder.compiler, source)
	if guard == nil {
		return w.ignore(n, DirectiveIf, source, "guard does not compile")
	}
	if n.Parent == nil {
		return w.ignore(n, DirectiveIf, source, "element has no parent")
	}

	next := dom.NextElementSibling(n)
	t := reserve(n, DirectiveIf)
	chain := []*link{{guard: guard}}

	for next != nil {
		sibling := next
		if source, _ := dom.Attr(sibling, DirectiveElseIf); source != "" {
			guard := expr.CompileValue(w.binder.compiler, source)
			if guard == nil {
				w.ignore(sibling, DirectiveElseIf, source, "guard does not compile")
				break
			}
			next = dom.NextElementSibling(sibling)
			t.add(sibling, DirectiveElseIf)
			chain = append(chain, &link{guard: guard})
			continue
		}
		if _, ok := dom.Attr(sibling, DirectiveElse); ok {
			t.add(sibling, DirectiveElse)
			chain = append(chain, &link{guard: always})
		}
		break
	}

	b := w.binder
	w.push(func(ctx context.Context, scope *expr.Scope, changes *Changes) error {
		saved := make([]*Instance, len(chain))
		for i, l := range chain {
			saved[i] = l.instance
		}
		changes.OnAbort(func() {
			for i, l := range chain {
				l.instance = saved[i]
			}
		})

		searching := true
		var stale []*Instance
		for i, l := range chain {
			// Guards after the first truthy one are not evaluated.
			if searching && expr.Truthy(l.guard(scope)) {
				searching = false
				if l.instance == nil {
					l.instance = b.instantiate(t, changes, i)
				}
				if err := Collect(ctx, l.instance.Bindings, scope, changes); err != nil {
					return err
				}
				continue
			}
			if l.instance != nil {
				stale = append(stale, l.instance)
				l.instance = nil
			}
		}
		t.dispose(stale, changes)
		return nil
	})
	return t.placeholder
}
