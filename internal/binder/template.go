package binder

import (
	"slices"

	"golang.org/x/net/html"

	"github.com/vk/viewbind/internal/dom"
)

// Template is the detached storage of a directive region: a placeholder
// left in the live tree, holding the original elements as children.
type Template struct {
	parent      *html.Node
	placeholder *html.Node
}

// Instance is one materialized clone of a template element together with
// the bindings of the clone.
type Instance struct {
	Root     *html.Node
	Bindings []Binding
}

// reserve inserts a placeholder before n and moves n into it.
func reserve(n *html.Node, directive string) *Template {
	t := &Template{parent: n.Parent, placeholder: dom.NewPlaceholder()}
	t.parent.InsertBefore(t.placeholder, n)
	t.add(n, directive)
	return t
}

// add moves a chained element into the placeholder and strips its
// directive attribute.
func (t *Template) add(n *html.Node, directive string) {
	dom.Move(n, t.placeholder)
	dom.RemoveAttr(n, directive)
}

// Placeholder returns the node anchoring the region in the live tree.
func (t *Template) Placeholder() *html.Node {
	return t.placeholder
}

// instantiate clones the index-th stored element, binds the clone and
// queues its insertion before the placeholder.
func (b *Binder) instantiate(t *Template, changes *Changes, index int) *Instance {
	clone := dom.Clone(dom.ElementChild(t.placeholder, index))
	inst := &Instance{Root: clone, Bindings: b.Parse(clone)}
	placeholder := t.placeholder
	changes.Push(func() error {
		return dom.InsertBefore(clone, placeholder)
	})
	return inst
}

// dispose queues a single removal of every given instance. It does
// nothing when instances is empty.
func (t *Template) dispose(instances []*Instance, changes *Changes) {
	if len(instances) == 0 {
		return
	}
	instances = slices.Clone(instances)
	parent := t.parent
	changes.Push(func() error {
		for _, inst := range instances {
			if err := dom.Remove(parent, inst.Root); err != nil {
				return err
			}
		}
		return nil
	})
}
