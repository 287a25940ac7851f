// Package rxtest provides helpers for testing observables.
package rxtest

import (
	"context"
	"sync"

	"github.com/xinjiayu/rxcore"
)

// Recorder is an rxcore.Observer that records every notification it receives.
//
// Recorder is safe to use from the producer goroutine while a test goroutine
// inspects it.
type Recorder[T any] struct {
	mu            sync.Mutex
	notifications []rxcore.Notification[T]
	changed       chan struct{}
	done          chan struct{}
}

// NewRecorder constructs an empty Recorder.
func NewRecorder[T any]() *Recorder[T] {
	return &Recorder[T]{
		changed: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// OnNext records a value.
func (r *Recorder[T]) OnNext(value T) {
	r.record(rxcore.NextNotification(value))
}

// OnError records an error and marks the recorder done.
func (r *Recorder[T]) OnError(err error) {
	r.record(rxcore.ErrorNotification[T](err))
}

// OnCompleted records completion and marks the recorder done.
func (r *Recorder[T]) OnCompleted() {
	r.record(rxcore.CompletedNotification[T]())
}

func (r *Recorder[T]) record(n rxcore.Notification[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = append(r.notifications, n)
	close(r.changed)
	r.changed = make(chan struct{})

	if n.IsTerminal() {
		select {
		case <-r.done:
		default:
			close(r.done)
		}
	}
}

// Notifications returns a snapshot copy of recorded notifications.
func (r *Recorder[T]) Notifications() []rxcore.Notification[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]rxcore.Notification[T], len(r.notifications))
	copy(cp, r.notifications)
	return cp
}

// Values returns the recorded values in arrival order.
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.valuesLocked()
}

func (r *Recorder[T]) valuesLocked() []T {
	out := make([]T, 0, len(r.notifications))
	for _, n := range r.notifications {
		if n.Kind == rxcore.KindNext {
			out = append(out, n.Value)
		}
	}
	return out
}

// Err returns the first recorded error, if any.
func (r *Recorder[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.Kind == rxcore.KindError {
			return n.Err
		}
	}
	return nil
}

// Completed reports whether OnCompleted was recorded.
func (r *Recorder[T]) Completed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.Kind == rxcore.KindCompleted {
			return true
		}
	}
	return false
}

// Done returns a channel that closes on the first terminal notification.
func (r *Recorder[T]) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until a terminal notification is recorded or ctx ends.
func (r *Recorder[T]) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitValues blocks until at least n values are recorded or ctx ends, and
// returns the values recorded so far.
func (r *Recorder[T]) WaitValues(ctx context.Context, n int) ([]T, error) {
	for {
		r.mu.Lock()
		values := r.valuesLocked()
		changed := r.changed
		r.mu.Unlock()

		if len(values) >= n {
			return values, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return values, ctx.Err()
		}
	}
}

// Reset clears the recorder. A recorder that was done stays done.
func (r *Recorder[T]) Reset() {
	r.mu.Lock()
	r.notifications = nil
	r.mu.Unlock()
}
