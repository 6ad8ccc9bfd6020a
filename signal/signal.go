/*
File Name:  signal.go
Package:    signal

Signal is a small abstraction over the handful of ways one goroutine needs
to wake or hand data to another: a bare wakeup (notify), a point-to-point
queue (mpsc), or a fan-out to every interested listener (broadcast). A stub
variant satisfies the same interface for call sites that have no handler
wired up yet.

Each variant is its own concrete type implementing Signal[T], following the
same "interface of small concrete senders" shape the core package uses for
its multiWriter subscriber registry.
*/

package signal

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Sentinel errors returned by Signal implementations.
var (
	ErrNoHandler   = errors.New("signal: no handler installed (stub signal)")
	ErrWrongSignal = errors.New("signal: operation not supported by this signal variant")
	ErrBroadcast   = errors.New("signal: broadcast channel closed or lagging")
	ErrNoReceiver  = errors.New("signal: no receiver is listening")
	ErrNoSender    = errors.New("signal: sender has been closed")
)

// Signal is the common interface implemented by every variant. T is the
// type of value carried by the data-bearing variants; NotifyOne/Notified
// ignore T entirely and are only meaningful on a notify signal.
type Signal[T any] interface {
	// NotifyOne wakes one waiter of a notify signal. Only valid on a notify
	// signal; returns ErrWrongSignal otherwise.
	NotifyOne() error

	// Notified returns a channel that receives once the next time NotifyOne
	// is called. Only valid on a notify signal.
	Notified() (<-chan struct{}, error)

	// Send hands data to the signal: wakes a notify signal (data is
	// discarded), enqueues on an mpsc signal, or fans out to every
	// subscriber of a broadcast signal. ctx governs blocking sends.
	Send(ctx context.Context, data T) error

	// Recv blocks until a value is available, ctx is done, or the signal is
	// closed. The boolean result is false once the signal is closed and
	// drained.
	Recv(ctx context.Context) (T, bool, error)

	// TryRecv returns immediately: a value if one was queued, zero value
	// and false if none was ready.
	TryRecv() (T, bool, error)

	// Subscribe returns a handle usable for sending/receiving through the
	// same underlying signal: a shared sender for notify/mpsc, a fresh
	// receiver for broadcast.
	Subscribe() Signal[T]

	// Close releases the signal's resources. What later calls return
	// depends on the variant; none of them turns into a stub signal:
	// notify fails NotifyOne, Notified, Send and Recv with ErrNoHandler;
	// mpsc fails Send with ErrNoReceiver and TryRecv with ErrNoSender,
	// and Recv reports false with no error; a closed broadcast handle
	// fails Recv/TryRecv with ErrNoReceiver, while its Send still
	// reaches the hub's remaining subscribers.
	Close()
}

// NewStub returns a Signal with no backing handler. Every data-bearing
// operation fails with ErrNoHandler; it is the safe default for a field
// that may or may not be wired up later.
func NewStub[T any]() Signal[T] {
	return &stubSignal[T]{}
}

type stubSignal[T any] struct{}

func (s *stubSignal[T]) NotifyOne() error                          { return ErrNoHandler }
func (s *stubSignal[T]) Notified() (<-chan struct{}, error)         { return nil, ErrNoHandler }
func (s *stubSignal[T]) Send(ctx context.Context, data T) error     { return ErrNoHandler }
func (s *stubSignal[T]) TryRecv() (T, bool, error) {
	var zero T
	return zero, false, ErrNoHandler
}
func (s *stubSignal[T]) Recv(ctx context.Context) (T, bool, error) {
	var zero T
	return zero, false, ErrNoHandler
}
func (s *stubSignal[T]) Subscribe() Signal[T] { return &stubSignal[T]{} }
func (s *stubSignal[T]) Close()               {}

// NewNotify returns a bare wakeup signal, backed by a single shared
// channel with one slot: a wakeup sent while the slot is full is dropped,
// not queued. Data passed to Send is discarded.
func NewNotify[T any]() Signal[T] {
	return &notifySignal[T]{ch: make(chan struct{}, 1)}
}

type notifySignal[T any] struct {
	mu     sync.Mutex
	ch     chan struct{}
	closed bool
}

func (s *notifySignal[T]) NotifyOne() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrNoHandler
	}
	select {
	case s.ch <- struct{}{}:
	default:
	}
	return nil
}

func (s *notifySignal[T]) Notified() (<-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrNoHandler
	}
	return s.ch, nil
}

func (s *notifySignal[T]) Send(ctx context.Context, data T) error {
	return s.NotifyOne()
}

func (s *notifySignal[T]) Recv(ctx context.Context) (T, bool, error) {
	var zero T
	ch, err := s.Notified()
	if err != nil {
		return zero, false, err
	}
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case _, ok := <-ch:
		return zero, ok, nil
	}
}

func (s *notifySignal[T]) TryRecv() (T, bool, error) {
	var zero T
	return zero, false, ErrWrongSignal
}

// Subscribe on a notify signal returns the same handle, so every holder
// shares one closed flag and a Close through any of them is seen by all.
func (s *notifySignal[T]) Subscribe() Signal[T] {
	return s
}

func (s *notifySignal[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		close(s.ch)
		s.closed = true
	}
}

// mpscQueueDepth matches the teacher/original's fixed channel capacity.
const mpscQueueDepth = 255

// NewMPSC returns a point-to-point queue: every Send is delivered to
// exactly one Recv/TryRecv call, in order.
func NewMPSC[T any]() Signal[T] {
	return &mpscSignal[T]{ch: make(chan T, mpscQueueDepth)}
}

type mpscSignal[T any] struct {
	mu     sync.Mutex
	ch     chan T
	closed bool
}

func (s *mpscSignal[T]) NotifyOne() error                  { return ErrWrongSignal }
func (s *mpscSignal[T]) Notified() (<-chan struct{}, error) { return nil, ErrWrongSignal }

func (s *mpscSignal[T]) Send(ctx context.Context, data T) error {
	s.mu.Lock()
	closed := s.closed
	ch := s.ch
	s.mu.Unlock()
	if closed {
		return ErrNoReceiver
	}

	select {
	case ch <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *mpscSignal[T]) Recv(ctx context.Context) (T, bool, error) {
	var zero T
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case v, ok := <-ch:
		return v, ok, nil
	}
}

func (s *mpscSignal[T]) TryRecv() (T, bool, error) {
	var zero T
	s.mu.Lock()
	ch := s.ch
	closed := s.closed
	s.mu.Unlock()

	select {
	case v, ok := <-ch:
		if !ok {
			return zero, false, ErrNoSender
		}
		return v, true, nil
	default:
		if closed {
			return zero, false, ErrNoSender
		}
		return zero, false, nil
	}
}

// Subscribe on an mpsc signal clones the sender side only: the returned
// handle can Send onto the same queue but can never Recv/TryRecv from it,
// since an mpsc queue has exactly one logical receiver (the original).
func (s *mpscSignal[T]) Subscribe() Signal[T] {
	return &mpscSender[T]{underlying: s}
}

func (s *mpscSignal[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		close(s.ch)
		s.closed = true
	}
}

// mpscSender is the send-only handle Subscribe returns for an mpsc signal:
// "a second subscriber can send but never receives."
type mpscSender[T any] struct {
	underlying *mpscSignal[T]
}

func (s *mpscSender[T]) NotifyOne() error                  { return ErrWrongSignal }
func (s *mpscSender[T]) Notified() (<-chan struct{}, error) { return nil, ErrWrongSignal }

func (s *mpscSender[T]) Send(ctx context.Context, data T) error {
	return s.underlying.Send(ctx, data)
}

func (s *mpscSender[T]) Recv(ctx context.Context) (T, bool, error) {
	var zero T
	return zero, false, ErrNoReceiver
}

func (s *mpscSender[T]) TryRecv() (T, bool, error) {
	var zero T
	return zero, false, ErrNoReceiver
}

func (s *mpscSender[T]) Subscribe() Signal[T] { return &mpscSender[T]{underlying: s.underlying} }
func (s *mpscSender[T]) Close()               { s.underlying.Close() }

// broadcastQueueDepth is each subscriber's private buffer depth.
const broadcastQueueDepth = 255

// NewBroadcast returns a fan-out signal: every Send is delivered once to
// every current subscriber, following the multiWriter subscribe/unsubscribe
// pattern used by the core package's event filters.
func NewBroadcast[T any]() Signal[T] {
	return &broadcastSignal[T]{
		hub: &broadcastHub[T]{subscribers: make(map[uuid.UUID]chan T)},
	}
}

// broadcastHub is the shared fan-out state; every handle returned by
// Subscribe points at the same hub.
type broadcastHub[T any] struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]chan T
	closed      bool
}

func (h *broadcastHub[T]) subscribe() (uuid.UUID, chan T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.New()
	ch := make(chan T, broadcastQueueDepth)
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subscribers[id] = ch
	return id, ch
}

func (h *broadcastHub[T]) unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
	}
}

func (h *broadcastHub[T]) send(ctx context.Context, data T) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrNoReceiver
	}
	if len(h.subscribers) == 0 {
		return ErrNoReceiver
	}

	var err error
	for _, ch := range h.subscribers {
		select {
		case ch <- data:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// This subscriber's buffer is full: it misses the value, the
			// others still get it, and the sender is told via ErrBroadcast.
			err = ErrBroadcast
		}
	}
	return err
}

func (h *broadcastHub[T]) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		delete(h.subscribers, id)
		close(ch)
	}
}

// broadcastSignal is one subscriber's handle onto a shared broadcastHub. A
// freshly constructed signal (via NewBroadcast) has no personal receive
// channel until Subscribe is called; Send still reaches every subscriber.
type broadcastSignal[T any] struct {
	hub *broadcastHub[T]
	id  uuid.UUID
	ch  chan T
	has bool
}

func (s *broadcastSignal[T]) NotifyOne() error                  { return ErrWrongSignal }
func (s *broadcastSignal[T]) Notified() (<-chan struct{}, error) { return nil, ErrWrongSignal }

func (s *broadcastSignal[T]) Send(ctx context.Context, data T) error {
	return s.hub.send(ctx, data)
}

func (s *broadcastSignal[T]) Recv(ctx context.Context) (T, bool, error) {
	var zero T
	if !s.has {
		return zero, false, ErrNoReceiver
	}

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case v, ok := <-s.ch:
		return v, ok, nil
	}
}

func (s *broadcastSignal[T]) TryRecv() (T, bool, error) {
	var zero T
	if !s.has {
		return zero, false, ErrNoReceiver
	}

	select {
	case v, ok := <-s.ch:
		if !ok {
			return zero, false, ErrNoSender
		}
		return v, true, nil
	default:
		return zero, false, nil
	}
}

// Subscribe registers a new subscriber channel against the shared hub and
// returns a handle bound to it, mirroring broadcast::Sender::subscribe.
func (s *broadcastSignal[T]) Subscribe() Signal[T] {
	id, ch := s.hub.subscribe()
	return &broadcastSignal[T]{hub: s.hub, id: id, ch: ch, has: true}
}

// Close unsubscribes this handle. It does not tear down the hub for other
// subscribers; call Close on every handle (or let the hub's owner call
// CloseHub) to shut the broadcast down entirely.
func (s *broadcastSignal[T]) Close() {
	if s.has {
		s.hub.unsubscribe(s.id)
		s.has = false
	}
}

// CloseHub shuts the broadcast down for every current and future
// subscriber. Unlike Close, it affects the whole fan-out, not just one
// handle.
func CloseHub[T any](s Signal[T]) {
	if b, ok := s.(*broadcastSignal[T]); ok {
		b.hub.close()
	}
}
