// Package model is the reactive data model behind an attached tree.
//
// A Model owns a deep copy of the data it was created from, normalized to
// plain maps, slices and scalars, and exposes it through paths written as
// HCL traversals (`items[0].done`). Every write goes through the Model:
// Set compares the old and new value, and the container operations compare
// structural snapshots taken before and after the change. When something
// actually changed, the Model calls its onMutate callback exactly once per
// operation, outside of its lock.
package model

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/go-cmp/cmp"

	"github.com/vk/viewbind/internal/expr"
)

// Model is safe for concurrent use.
type Model struct {
	mu       sync.Mutex
	root     map[string]any
	onMutate func()
}

// Observe wraps a deep copy of data. onMutate may be nil.
func Observe(data map[string]any, onMutate func()) *Model {
	root, _ := expr.Normalize(data).(map[string]any)
	if root == nil {
		root = map[string]any{}
	}
	if onMutate == nil {
		onMutate = func() {}
	}
	return &Model{root: root, onMutate: onMutate}
}

// Snapshot returns a deep copy of the whole tree.
func (m *Model) Snapshot() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.root).(map[string]any)
}

// Lookup returns a copy of a top-level value, so a Model can serve as the
// root of an expression scope.
func (m *Model) Lookup(name string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.root[name]
	return clone(v), ok
}

// Keys lists the top-level names, sorted.
func (m *Model) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.root))
	for k := range m.root {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns a copy of the value at path. The empty path is the root.
func (m *Model) Get(path string) (any, error) { return m.View("").Get(path) }

// Set writes v at path.
func (m *Model) Set(path string, v any) error { return m.View("").Set(path, v) }

// Update replaces the value at path with fn's result.
func (m *Model) Update(path string, fn func(v any) any) error { return m.View("").Update(path, fn) }

// Append adds values to the list at path.
func (m *Model) Append(path string, values ...any) error {
	return m.View("").Append(path, values...)
}

// Delete removes the map entry or list element at path.
func (m *Model) Delete(path string) error { return m.View("").Delete(path) }

// View returns a handle on the sub-tree at path. The path is resolved on
// every operation, so a View of `items[0]` follows whatever is at index 0.
func (m *Model) View(path string) *View {
	steps, err := parsePath(path)
	return &View{model: m, prefix: steps, err: err}
}

// View is a path-relative handle on a Model.
type View struct {
	model  *Model
	prefix []step
	err    error
}

// View returns a handle relative to this one.
func (v *View) View(path string) *View {
	if v.err != nil {
		return v
	}
	steps, err := parsePath(path)
	return &View{model: v.model, prefix: join(v.prefix, steps), err: err}
}

// Path returns the absolute path of the view.
func (v *View) Path() string { return formatPath(v.prefix) }

func (v *View) resolve(path string) ([]step, error) {
	if v.err != nil {
		return nil, v.err
	}
	steps, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	return join(v.prefix, steps), nil
}

// Get returns a copy of the value at path.
func (v *View) Get(path string) (any, error) {
	steps, err := v.resolve(path)
	if err != nil {
		return nil, err
	}
	m := v.model
	m.mu.Lock()
	defer m.mu.Unlock()
	val, err := get(m.root, steps)
	if err != nil {
		return nil, err
	}
	return clone(val), nil
}

// Set writes value at path, creating the final map key if needed. It only
// notifies when the new value differs from the old one.
func (v *View) Set(path string, value any) error {
	return v.mutate(path, func(old any, _ bool) (any, error) {
		return expr.Normalize(value), nil
	})
}

// Update calls fn with the current value at path (nil when missing) and
// stores what it returns. fn may change the value in place; the change is
// detected by comparing snapshots.
func (v *View) Update(path string, fn func(v any) any) error {
	return v.mutate(path, func(old any, _ bool) (any, error) {
		return expr.Normalize(fn(old)), nil
	})
}

// Append adds values at the end of the list at path. A missing or nil
// value starts a new list.
func (v *View) Append(path string, values ...any) error {
	return v.mutate(path, func(old any, _ bool) (any, error) {
		list, ok := old.([]any)
		if old != nil && !ok {
			return nil, fmt.Errorf("%w: cannot append to %T", ErrPath, old)
		}
		for _, value := range values {
			list = append(list, expr.Normalize(value))
		}
		return list, nil
	})
}

// Delete removes the map entry or list element at path. Deleting a missing
// map key is a no-op.
func (v *View) Delete(path string) error {
	steps, err := v.resolve(path)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return fmt.Errorf("%w: cannot delete the root", ErrPath)
	}
	m := v.model
	m.mu.Lock()
	parent, err := get(m.root, steps[:len(steps)-1])
	if err != nil {
		m.mu.Unlock()
		return err
	}
	changed := false
	switch last := steps[len(steps)-1].(type) {
	case string:
		container, ok := parent.(map[string]any)
		if !ok {
			m.mu.Unlock()
			return fmt.Errorf("%w: %s is not a map", ErrPath, formatPath(steps[:len(steps)-1]))
		}
		_, changed = container[last]
		delete(container, last)
	case int:
		list, ok := parent.([]any)
		if !ok || last >= len(list) {
			m.mu.Unlock()
			return fmt.Errorf("%w: no element at %s", ErrPath, formatPath(steps))
		}
		if err := put(m.root, steps[:len(steps)-1], slices.Delete(slices.Clone(list), last, last+1)); err != nil {
			m.mu.Unlock()
			return err
		}
		changed = true
	}
	m.mu.Unlock()
	if changed {
		m.onMutate()
	}
	return nil
}

// mutate computes a new value for path from a snapshot of the old one,
// stores it, and notifies when the two differ.
func (v *View) mutate(path string, next func(old any, found bool) (any, error)) error {
	steps, err := v.resolve(path)
	if err != nil {
		return err
	}
	m := v.model
	m.mu.Lock()
	old, err := get(m.root, steps)
	found := err == nil
	if !found && len(steps) == 0 {
		m.mu.Unlock()
		return err
	}
	before := clone(old)
	value, err := next(old, found)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	changed := !found || !cmp.Equal(before, value)
	if changed {
		if len(steps) == 0 {
			root, ok := value.(map[string]any)
			if !ok {
				m.mu.Unlock()
				return fmt.Errorf("%w: root must be a map, got %T", ErrPath, value)
			}
			m.root = root
		} else if err := put(m.root, steps, value); err != nil {
			m.mu.Unlock()
			return err
		}
	}
	m.mu.Unlock()
	if changed {
		m.onMutate()
	}
	return nil
}

func join(prefix, steps []step) []step {
	out := make([]step, 0, len(prefix)+len(steps))
	return append(append(out, prefix...), steps...)
}

// get resolves steps against the live tree.
func get(root any, steps []step) (any, error) {
	cur := root
	for i, s := range steps {
		switch s := s.(type) {
		case string:
			container, ok := cur.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s is not a map", ErrPath, formatPath(steps[:i]))
			}
			v, found := container[s]
			if !found {
				return nil, fmt.Errorf("%w: no key at %s", ErrPath, formatPath(steps[:i+1]))
			}
			cur = v
		case int:
			list, ok := cur.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s is not a list", ErrPath, formatPath(steps[:i]))
			}
			if s >= len(list) {
				return nil, fmt.Errorf("%w: index out of range at %s", ErrPath, formatPath(steps[:i+1]))
			}
			cur = list[s]
		}
	}
	return cur, nil
}

// put stores value at steps. The parent must exist; a missing final map
// key is created, a list index must be in range.
func put(root map[string]any, steps []step, value any) error {
	parent, err := get(root, steps[:len(steps)-1])
	if err != nil {
		return err
	}
	switch last := steps[len(steps)-1].(type) {
	case string:
		container, ok := parent.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s is not a map", ErrPath, formatPath(steps[:len(steps)-1]))
		}
		container[last] = value
	case int:
		list, ok := parent.([]any)
		if !ok || last >= len(list) {
			return fmt.Errorf("%w: no element at %s", ErrPath, formatPath(steps))
		}
		list[last] = value
	}
	return nil
}

// clone deep-copies maps and slices of a normalized tree.
func clone(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = clone(e)
		}
		return out
	case []any:
		if x == nil {
			return []any(nil)
		}
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = clone(e)
		}
		return out
	}
	return v
}
