package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vk/viewbind/internal/ctxlog"
)

// Cycle runs one refresh against data and returns how many mutations it
// applied.
type Cycle func(ctx context.Context, data any) (int, error)

// Signal is the completion handle of one cycle.
type Signal struct {
	done  chan struct{}
	count int
	err   error
}

func newSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

func (s *Signal) resolve(count int, err error) {
	s.count, s.err = count, err
	close(s.done)
}

// Done is closed once the cycle has finished.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the cycle finishes or ctx is done. It returns the
// number of applied mutations or the cycle failure.
func (s *Signal) Wait(ctx context.Context) (int, error) {
	select {
	case <-s.done:
		return s.count, s.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDelay sets how long a trigger waits before its cycle starts.
func WithDelay(d time.Duration) Option {
	return func(s *Scheduler) { s.delay = d }
}

// WithLogger sets the logger carried into every cycle's context.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// Scheduler is safe for concurrent use.
type Scheduler struct {
	cycle  Cycle
	delay  time.Duration
	logger *slog.Logger

	mu          sync.Mutex
	pending     *Signal
	pendingData any
	running     *Signal
	last        *Signal
}

// New creates a Scheduler around cycle.
func New(cycle Cycle, opts ...Option) *Scheduler {
	s := &Scheduler{cycle: cycle, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Trigger requests a cycle against data. Triggers that land before the
// pending cycle starts share its Signal, and the last data wins.
func (s *Scheduler) Trigger(data any) *Signal {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendingData = data
	if s.pending != nil {
		return s.pending
	}
	s.pending = newSignal()
	if s.running == nil {
		s.arm()
	} else {
		s.logger.Debug("Cycle running, queueing a follow-up.")
	}
	return s.pending
}

// Done returns the pending Signal, else the running one, else the last
// resolved one. Before any trigger it returns an already resolved Signal.
func (s *Scheduler) Done() *Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.pending != nil:
		return s.pending
	case s.running != nil:
		return s.running
	case s.last != nil:
		return s.last
	}
	sig := newSignal()
	sig.resolve(0, nil)
	s.last = sig
	return sig
}

// arm must be called with mu held.
func (s *Scheduler) arm() {
	time.AfterFunc(s.delay, s.run)
}

func (s *Scheduler) run() {
	s.mu.Lock()
	sig, data := s.pending, s.pendingData
	s.pending, s.pendingData = nil, nil
	s.running = sig
	s.mu.Unlock()

	ctx := ctxlog.WithLogger(context.Background(), s.logger)
	count, err := s.safeCycle(ctx, data)
	if err != nil {
		s.logger.Debug("Cycle failed.", "error", err)
	} else {
		s.logger.Debug("Cycle finished.", "mutations", count)
	}

	sig.resolve(count, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = nil
	s.last = sig
	if s.pending != nil {
		s.arm()
	}
}

func (s *Scheduler) safeCycle(ctx context.Context, data any) (count int, err error) {
	defer func() {
		if r := recover(); r != nil {
			count, err = 0, fmt.Errorf("cycle panicked: %v", r)
		}
	}()
	return s.cycle(ctx, data)
}
