package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/viewbind/internal/scheduler"
)

type recorder struct {
	mu   sync.Mutex
	seen []any
}

func (r *recorder) cycle(_ context.Context, data any) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, data)
	return len(r.seen), nil
}

func (r *recorder) calls() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.seen...)
}

func wait(t *testing.T, sig *scheduler.Signal) (int, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sig.Wait(ctx)
}

func TestScheduler_Debounce(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	s := scheduler.New(rec.cycle, scheduler.WithDelay(20*time.Millisecond))

	first := s.Trigger("a")
	second := s.Trigger("b")
	require.Same(t, first, second, "triggers before the cycle starts share a Signal")
	require.Same(t, first, s.Done())

	n, err := wait(t, first)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []any{"b"}, rec.calls(), "the last data wins")
	assert.Same(t, first, s.Done(), "the resolved Signal stays visible")

	third := s.Trigger("c")
	assert.NotSame(t, first, third)
	_, err = wait(t, third)
	require.NoError(t, err)
	assert.Equal(t, []any{"b", "c"}, rec.calls())
}

func TestScheduler_DoneBeforeTrigger(t *testing.T) {
	t.Parallel()
	s := scheduler.New((&recorder{}).cycle)

	n, err := wait(t, s.Done())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestScheduler_FollowUp(t *testing.T) {
	t.Parallel()
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var seen []any
	active, overlap := 0, false

	cycle := func(_ context.Context, data any) (int, error) {
		mu.Lock()
		active++
		overlap = overlap || active > 1
		seen = append(seen, data)
		first := len(seen) == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
		mu.Lock()
		active--
		mu.Unlock()
		return 1, nil
	}
	s := scheduler.New(cycle)

	running := s.Trigger(1)
	<-started

	followUp := s.Trigger(2)
	require.NotSame(t, running, followUp, "a trigger during a run queues a new cycle")
	require.Same(t, followUp, s.Trigger(3), "only one follow-up is queued")
	require.Same(t, followUp, s.Done())
	close(release)

	_, err := wait(t, running)
	require.NoError(t, err)
	_, err = wait(t, followUp)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []any{1, 3}, seen)
	assert.False(t, overlap, "cycles never overlap")
}

func TestScheduler_Failure(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	testCases := []struct {
		name  string
		cycle scheduler.Cycle
		check func(t *testing.T, err error)
	}{
		{
			name:  "error",
			cycle: func(context.Context, any) (int, error) { return 0, boom },
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, boom) },
		},
		{
			name:  "panic",
			cycle: func(context.Context, any) (int, error) { panic("bad") },
			check: func(t *testing.T, err error) { assert.ErrorContains(t, err, "cycle panicked: bad") },
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := scheduler.New(tc.cycle)
			_, err := wait(t, s.Trigger(nil))
			require.Error(t, err)
			tc.check(t, err)

			// A failed cycle does not wedge the scheduler.
			_, err = wait(t, s.Trigger(nil))
			require.Error(t, err)
		})
	}
}

func TestSignal_WaitHonoursContext(t *testing.T) {
	t.Parallel()
	block := make(chan struct{})
	defer close(block)
	s := scheduler.New(func(context.Context, any) (int, error) {
		<-block
		return 0, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Trigger(nil).Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
