package binder

import (
	"context"
	"fmt"

	"github.com/vk/viewbind/internal/ctxlog"
	"github.com/vk/viewbind/internal/expr"
)

// Change is a deferred tree mutation.
type Change func() error

// Changes is the mutation queue of one refresh cycle. Bindings push onto it
// while collecting; nothing touches the tree until Apply.
//
// Bindings that record state while collecting register a rollback with
// OnAbort. A cycle whose collection fails calls Abort instead of Apply, so
// the next cycle diffs against what the tree actually shows.
type Changes struct {
	queue     []Change
	rollbacks []func()
}

// Push appends a mutation to the queue.
func (c *Changes) Push(change Change) {
	c.queue = append(c.queue, change)
}

// OnAbort registers fn to run if the cycle is aborted.
func (c *Changes) OnAbort(fn func()) {
	c.rollbacks = append(c.rollbacks, fn)
}

// Abort drops the queued mutations and runs the registered rollbacks in
// reverse order.
func (c *Changes) Abort() {
	for i := len(c.rollbacks) - 1; i >= 0; i-- {
		c.rollbacks[i]()
	}
	c.queue, c.rollbacks = nil, nil
}

// Len returns the number of queued mutations.
func (c *Changes) Len() int {
	return len(c.queue)
}

// Apply runs the queued mutations in push order and returns how many were
// queued. The first failing (or panicking) mutation aborts the rest; the
// mutations already applied stay applied.
func (c *Changes) Apply(ctx context.Context) (int, error) {
	logger := ctxlog.FromContext(ctx)
	for i, change := range c.queue {
		if err := runChange(change); err != nil {
			logger.Debug("Mutation failed, aborting application.", "index", i, "queued", len(c.queue), "error", err)
			return i, fmt.Errorf("applying change %d of %d: %w", i+1, len(c.queue), err)
		}
	}
	logger.Debug("Applied changes.", "count", len(c.queue))
	return len(c.queue), nil
}

func runChange(change Change) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("change panicked: %v", r)
		}
	}()
	return change()
}

// Collect runs bindings in order against scope, stopping at the first
// failure. Cancellation of ctx is checked between bindings.
func Collect(ctx context.Context, bindings []Binding, scope *expr.Scope, changes *Changes) error {
	for _, binding := range bindings {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := binding(ctx, scope, changes); err != nil {
			return err
		}
	}
	return nil
}
