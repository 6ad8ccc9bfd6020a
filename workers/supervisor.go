/*
File Name:  supervisor.go
Package:    workers

Supervisor starts the receive/dispatch/emit/heartbeat pipeline over a
Network and coordinates its shutdown: every worker shares one broadcast
"backbone" signal, checked non-blockingly at the top of each loop
iteration, and Shutdown fans a single token out to all of them. ctx
additionally bounds the receiver's one unbounded suspension point
(recv_from), matching the spec's note that implementations may multiplex
a recv against the backbone with select-style cancellation. Wait blocks
until every worker has actually returned.
*/

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/Azoozya/toktok/netio"
	"github.com/Azoozya/toktok/signal"
	"github.com/Azoozya/toktok/wire"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// traceGracetime is how long Trace rests between polls of its feed when it
// finds nothing queued.
const traceGracetime = time.Second

// shuttingDown performs the non-blocking backbone check every worker makes
// at the top of each loop iteration: receiving a token, or the broadcast
// being closed, both mean shut down.
func shuttingDown(backbone signal.Signal[struct{}]) bool {
	_, ok, err := backbone.TryRecv()
	return ok || err != nil
}

// Supervisor owns the shared queues, the backbone, and the lifetime of one
// node's worker pipeline.
type Supervisor struct {
	net      *netio.Network
	income   *signal.SharedFifo[wire.Datagram, struct{}]
	outcome  *signal.SharedFifo[wire.Datagram, struct{}]
	backbone signal.Signal[struct{}]

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Start launches receiver, dispatcher and emitter against net, and
// heartbeater if withHeartbeat is true, all sharing one backbone broadcast
// signal. log is used for worker-level diagnostics. tracerDB enables the
// tracer worker when non-nil: every dispatched datagram is offered to it,
// though Trace itself never issues a query against tracerDB (see
// trace.go); the tracer is not one of the four backbone-coordinated
// tasks, matching its status as a reserved addition rather than core.
// Passing nil leaves tracing disabled, which is the default from
// cmd/toktok.
func Start(ctx context.Context, net *netio.Network, withHeartbeat bool, tracerDB *gorm.DB, log *logrus.Entry) *Supervisor {
	runCtx, cancel := context.WithCancel(ctx)

	backbone := signal.NewBroadcast[struct{}]()

	s := &Supervisor{
		net:      net,
		income:   signal.NewSharedFifo[wire.Datagram, struct{}](signal.NewNotify[struct{}]),
		outcome:  signal.NewSharedFifo[wire.Datagram, struct{}](signal.NewNotify[struct{}]),
		backbone: backbone,
		cancel:   cancel,
	}

	var traced signal.Signal[wire.Datagram]
	if tracerDB != nil {
		traced = signal.NewBroadcast[wire.Datagram]()
	}

	// Every worker's backbone subscription is registered synchronously,
	// here, before its goroutine is spawned: Shutdown may run as soon as
	// Start returns, and a subscription created lazily inside the
	// goroutine could lose a token sent before it registers.
	receiveBackbone := backbone.Subscribe()
	dispatchBackbone := backbone.Subscribe()
	emitBackbone := backbone.Subscribe()

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		Receive(runCtx, net, s.income, receiveBackbone, log.WithField("worker", "receive"))
	}()
	go func() {
		defer s.wg.Done()
		Dispatch(runCtx, net, s.income, s.outcome, traced, dispatchBackbone)
	}()

	if tracerDB != nil {
		// The root broadcast handle has no receive channel of its own; the
		// tracer needs a subscription, registered before its goroutine runs.
		tracedFeed := traced.Subscribe()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			Trace(runCtx, tracedFeed, tracerDB, traceGracetime)
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		Emit(runCtx, net, s.outcome, emitBackbone)
	}()

	if withHeartbeat {
		heartbeatBackbone := backbone.Subscribe()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			Heartbeat(runCtx, net, heartbeatBackbone)
		}()
	}

	return s
}

// Shutdown sends a single token on the backbone, which every worker
// observes at the top of its loop and treats as its cue to close its
// owned signals/FIFOs and return, and cancels the internal context so a
// receiver blocked in recv_from with no traffic arriving also wakes up.
// It does not block; call Wait to observe completion.
func (s *Supervisor) Shutdown() {
	_ = s.backbone.Send(context.Background(), struct{}{})
	s.cancel()
}

// Wait blocks until every worker launched by Start has returned.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
