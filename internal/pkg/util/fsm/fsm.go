// Package fsm holds helpers shared by the looplab/fsm based state machines.
package fsm

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// WrapEvent adapts a callback that returns an error to fsm.Callback.
// A non-nil error is stored on the event and returned from FSM.Event.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// Arg returns the i-th event argument if it has type T.
func Arg[T any](event *fsm.Event, i int) (T, bool) {
	var zero T
	if event == nil || i < 0 || i >= len(event.Args) {
		return zero, false
	}
	v, ok := event.Args[i].(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// IgnoreNoTransition drops the error returned when an event leaves the state unchanged.
func IgnoreNoTransition(err error) error {
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	return err
}
