package binder

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"reflect"

	"github.com/vk/viewbind/internal/ctxlog"
)

// ErrNotIterable fails a refresh cycle whose {{for}} source evaluated to a
// value that cannot be iterated, such as a number or a map.
var ErrNotIterable = errors.New("binder: value is not iterable")

// Sequence is a lazily produced sequence whose production can fail.
// An error (or a panic) while it is consumed empties the list for that
// cycle.
type Sequence func(yield func(any) bool) error

// materialize reads a {{for}} source into a list before any instance is
// touched.
//
// nil and "" (what a failed source evaluation yields) are empty lists, as
// is any failure raised while consuming a Sequence, an iter.Seq or a
// channel. A non-nil value of any other shape is ErrNotIterable.
func materialize(ctx context.Context, v any) ([]any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		list := make([]any, 0, len(x))
		for _, r := range x {
			list = append(list, string(r))
		}
		return list, nil
	case []any:
		return x, nil
	case Sequence:
		return absorb(ctx, func() ([]any, error) {
			var list []any
			err := x(func(item any) bool {
				list = append(list, item)
				return true
			})
			return list, err
		}), nil
	case iter.Seq[any]:
		return absorb(ctx, func() ([]any, error) {
			var list []any
			for item := range x {
				list = append(list, item)
			}
			return list, nil
		}), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		list := make([]any, rv.Len())
		for i := range list {
			list[i] = rv.Index(i).Interface()
		}
		return list, nil
	case reflect.Func:
		if !rv.Type().CanSeq() || rv.IsNil() {
			break
		}
		return absorb(ctx, func() ([]any, error) {
			var list []any
			for item := range rv.Seq() {
				list = append(list, item.Interface())
			}
			return list, nil
		}), nil
	case reflect.Chan:
		if rv.Type().ChanDir()&reflect.RecvDir == 0 || rv.IsNil() {
			break
		}
		return receive(ctx, rv)
	}
	return nil, fmt.Errorf("%w: %T", ErrNotIterable, v)
}

// absorb runs consume and turns its failure, or its panic, into an empty
// list.
func absorb(ctx context.Context, consume func() ([]any, error)) (list []any) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Debug("Iterator source panicked, rendering an empty list.", "panic", r)
			list = nil
		}
	}()
	list, err := consume()
	if err != nil {
		ctxlog.FromContext(ctx).Debug("Iterator source failed, rendering an empty list.", "error", err)
		return nil
	}
	return list
}

// receive drains a channel until it is closed. Cancellation of ctx fails
// the cycle.
func receive(ctx context.Context, ch reflect.Value) ([]any, error) {
	cases := []reflect.SelectCase{
		{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())},
		{Dir: reflect.SelectRecv, Chan: ch},
	}
	var list []any
	for {
		chosen, item, ok := reflect.Select(cases)
		if chosen == 0 {
			return nil, ctx.Err()
		}
		if !ok {
			return list, nil
		}
		list = append(list, item.Interface())
	}
}
