/*
File Name:  dispatcher.go
Package:    workers

dispatcher drains the income queue and spawns a handler goroutine per
datagram, until told to stop.
*/

package workers

import (
	"context"
	"sync"

	"github.com/Azoozya/toktok/netio"
	"github.com/Azoozya/toktok/signal"
	"github.com/Azoozya/toktok/wire"
)

// Dispatch waits for income to be notified of new datagrams, pops every
// one currently queued, and hands each to Handle on its own goroutine.
// It returns once the backbone reports shutdown, ctx is cancelled, or
// income is closed, after waiting for every handler it spawned to finish.
// When traced is non-nil, every popped datagram is also offered to it
// (best-effort: a full or closed traced signal never blocks or breaks
// dispatch). backbone must already be a subscribed handle.
func Dispatch(ctx context.Context, net *netio.Network, income, outcome *signal.SharedFifo[wire.Datagram, struct{}], traced signal.Signal[wire.Datagram], backbone signal.Signal[struct{}]) {
	var wg sync.WaitGroup
	defer func() {
		wg.Wait()
		outcome.Close()
		backbone.Close()
	}()

	for {
		if shuttingDown(backbone) {
			return
		}

		_, ok, err := income.Recv(ctx)
		if err != nil || !ok {
			return
		}

		for {
			dg, ok := income.Pop()
			if !ok {
				break
			}

			if traced != nil {
				_ = traced.Send(ctx, dg)
			}

			wg.Add(1)
			go func(dg wire.Datagram) {
				defer wg.Done()
				Handle(ctx, net, dg, outcome)
			}(dg)
		}
	}
}
