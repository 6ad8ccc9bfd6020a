/*
File Name:  fifo.go
Package:    signal

SharedFifo couples a mutex-guarded deque with a Signal[V], so a producer can
push data and separately wake a consumer without forcing the payload itself
through the signal's channel. Every push and pop happen at the same end of
the deque, so the most recently pushed item is the first one popped.
*/

package signal

import (
	"context"
	"sync"
)

// SharedFifo pairs a shared deque of T with a Signal[V] used purely to wake
// consumers; the value carried by the signal need not relate to the data in
// the deque. All clones of a SharedFifo (via Subscribe) share the same
// underlying deque.
type SharedFifo[T any, V any] struct {
	deque  *dequeState[T]
	signal Signal[V]
}

type dequeState[T any] struct {
	mu    sync.Mutex
	items []T
}

// NewSharedFifo constructs an empty SharedFifo backed by the given Signal
// constructor, e.g. signal.NewNotify[V] or signal.NewBroadcast[V].
func NewSharedFifo[T any, V any](newSignal func() Signal[V]) *SharedFifo[T, V] {
	return &SharedFifo[T, V]{
		deque:  &dequeState[T]{},
		signal: newSignal(),
	}
}

// Push inserts data at the front of the deque.
func (f *SharedFifo[T, V]) Push(data T) {
	f.deque.mu.Lock()
	defer f.deque.mu.Unlock()
	f.deque.items = append([]T{data}, f.deque.items...)
}

// Pop removes and returns the item at the front of the deque (the most
// recently pushed one). The boolean result is false if the deque is empty.
func (f *SharedFifo[T, V]) Pop() (T, bool) {
	f.deque.mu.Lock()
	defer f.deque.mu.Unlock()

	var zero T
	if len(f.deque.items) == 0 {
		return zero, false
	}

	item := f.deque.items[0]
	f.deque.items = f.deque.items[1:]
	return item, true
}

// PushNotice pushes data and then sends value over the signal, waking a
// waiting consumer.
func (f *SharedFifo[T, V]) PushNotice(ctx context.Context, data T, value V) error {
	f.Push(data)
	return f.signal.Send(ctx, value)
}

// TryRecv is a non-blocking receive on the underlying signal.
func (f *SharedFifo[T, V]) TryRecv() (V, bool, error) {
	return f.signal.TryRecv()
}

// Recv blocks on the underlying signal until a value arrives or ctx ends.
func (f *SharedFifo[T, V]) Recv(ctx context.Context) (V, bool, error) {
	return f.signal.Recv(ctx)
}

// Send pushes a value through the underlying signal without touching the
// deque.
func (f *SharedFifo[T, V]) Send(ctx context.Context, value V) error {
	return f.signal.Send(ctx, value)
}

// NotifyOne wakes one waiter of a notify-backed signal.
func (f *SharedFifo[T, V]) NotifyOne() error {
	return f.signal.NotifyOne()
}

// Notified returns the wakeup channel of a notify-backed signal.
func (f *SharedFifo[T, V]) Notified() (<-chan struct{}, error) {
	return f.signal.Notified()
}

// Close releases the underlying signal. The deque itself is left intact so
// buffered items may still be drained with Pop.
func (f *SharedFifo[T, V]) Close() {
	f.signal.Close()
}

// Subscribe returns a new SharedFifo sharing this one's deque, with its own
// handle onto the underlying signal (a fresh broadcast receiver, or a
// shared notify/mpsc handle, per Signal.Subscribe).
func (f *SharedFifo[T, V]) Subscribe() *SharedFifo[T, V] {
	return &SharedFifo[T, V]{
		deque:  f.deque,
		signal: f.signal.Subscribe(),
	}
}
