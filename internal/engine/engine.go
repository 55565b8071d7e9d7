package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/vk/viewbind/internal/binder"
	"github.com/vk/viewbind/internal/ctxlog"
	"github.com/vk/viewbind/internal/expr"
	"github.com/vk/viewbind/internal/expr/jsexpr"
	"github.com/vk/viewbind/internal/model"
	"github.com/vk/viewbind/internal/scheduler"
)

// Option configures Attach.
type Option func(*options)

type options struct {
	data     map[string]any
	compiler expr.Compiler
	logger   *slog.Logger
	delay    time.Duration
}

// WithData sets the initial data. Attach then creates the reactive model
// and renders once before returning.
func WithData(data map[string]any) Option {
	return func(o *options) {
		if data == nil {
			data = map[string]any{}
		}
		o.data = data
	}
}

// WithCompiler replaces the default expression compiler.
func WithCompiler(c expr.Compiler) Option {
	return func(o *options) { o.compiler = c }
}

// WithLogger sets the logger. By default the one carried by the Attach
// context is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDelay sets the debounce delay of scheduled refreshes.
func WithDelay(d time.Duration) Option {
	return func(o *options) { o.delay = d }
}

// Handle is an attached tree. Refresh cycles on a Handle never overlap.
type Handle struct {
	root     *html.Node
	bindings []binder.Binding
	model    *model.Model
	sched    *scheduler.Scheduler
	logger   *slog.Logger

	mu sync.Mutex
}

// Attach parses root into Bindings. Directive regions are reserved in the
// tree as a side effect, so root must not be attached twice.
func Attach(ctx context.Context, root *html.Node, opts ...Option) (*Handle, error) {
	if root == nil {
		return nil, errors.New("engine: nil root")
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.compiler == nil {
		o.compiler = jsexpr.New()
	}
	if o.logger == nil {
		o.logger = ctxlog.FromContext(ctx)
	}

	h := &Handle{root: root, logger: o.logger}
	h.bindings = binder.New(o.compiler, o.logger).Parse(root)
	h.sched = scheduler.New(h.scheduled, scheduler.WithDelay(o.delay), scheduler.WithLogger(o.logger))
	o.logger.Debug("Tree attached.", "bindings", len(h.bindings))

	if o.data == nil {
		return h, nil
	}
	h.model = model.Observe(o.data, func() { h.sched.Trigger(nil) })
	if _, err := h.Refresh(ctx, nil); err != nil {
		return h, fmt.Errorf("initial render: %w", err)
	}
	return h, nil
}

// Update schedules a debounced refresh. A nil data renders the model's
// current state; updates that land before the refresh starts share its
// Signal and the last data wins.
func (h *Handle) Update(data map[string]any) *scheduler.Signal {
	return h.sched.Trigger(data)
}

// Refresh runs one cycle now and returns the number of applied mutations.
// A nil data renders the model's current state.
func (h *Handle) Refresh(ctx context.Context, data map[string]any) (int, error) {
	return h.cycle(ctx, data)
}

// Done returns the Signal of the pending, running or last scheduled refresh.
func (h *Handle) Done() *scheduler.Signal {
	return h.sched.Done()
}

// Model returns the reactive model, or nil when attached without data.
func (h *Handle) Model() *model.Model {
	return h.model
}

// BindingCount returns the number of top-level Bindings.
func (h *Handle) BindingCount() int {
	return len(h.bindings)
}

// Root returns the attached tree.
func (h *Handle) Root() *html.Node {
	return h.root
}

func (h *Handle) scheduled(ctx context.Context, data any) (int, error) {
	m, _ := data.(map[string]any)
	return h.cycle(ctx, m)
}

func (h *Handle) cycle(ctx context.Context, data map[string]any) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if data == nil {
		data = h.snapshot()
	}
	ctx = ctxlog.WithLogger(ctx, h.logger)
	changes := &binder.Changes{}
	if err := binder.Collect(ctx, h.bindings, expr.NewScope(data), changes); err != nil {
		changes.Abort()
		return 0, fmt.Errorf("collecting changes: %w", err)
	}
	return changes.Apply(ctx)
}

func (h *Handle) snapshot() map[string]any {
	if h.model == nil {
		return map[string]any{}
	}
	return h.model.Snapshot()
}
