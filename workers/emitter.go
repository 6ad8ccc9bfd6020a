/*
File Name:  emitter.go
Package:    workers

emitter drains the outcome queue and writes every datagram to the wire,
until told to stop.
*/

package workers

import (
	"context"

	"github.com/Azoozya/toktok/netio"
	"github.com/Azoozya/toktok/signal"
	"github.com/Azoozya/toktok/wire"
)

// Emit waits for outcome to be notified of new datagrams and writes each
// one to the network, until the backbone reports shutdown, ctx is
// cancelled, or outcome is closed. backbone must already be a subscribed
// handle.
func Emit(ctx context.Context, net *netio.Network, outcome *signal.SharedFifo[wire.Datagram, struct{}], backbone signal.Signal[struct{}]) {
	defer backbone.Close()
	defer outcome.Close()

	for {
		if shuttingDown(backbone) {
			return
		}

		_, ok, err := outcome.Recv(ctx)
		if err != nil || !ok {
			return
		}

		for {
			dg, ok := outcome.Pop()
			if !ok {
				break
			}
			net.SendTo(dg, nil)
		}
	}
}
