/*
File Name:  handler.go
Package:    workers

handle classifies a single incoming datagram and produces the reply, if
any, to be emitted back onto the wire.
*/

package workers

import (
	"context"

	"github.com/Azoozya/toktok/netio"
	"github.com/Azoozya/toktok/signal"
	"github.com/Azoozya/toktok/wire"
)

// Handle processes one received datagram: PING is echoed back as PONG,
// HELLO registers the sender as a client and is echoed back as HELLO
// acknowledging the join, and anything else (UNKNOWN, and HELLO/PING
// arriving without a known sender) is dropped.
func Handle(ctx context.Context, net *netio.Network, dg wire.Datagram, outcome *signal.SharedFifo[wire.Datagram, struct{}]) {
	if dg.Src == nil {
		return
	}
	peer := *dg.Src

	switch dg.Data.Header() {
	case wire.HeaderPing:
		dg.Swap()
		dg.Data.SetHeader(wire.HeaderPong)
		outcome.PushNotice(ctx, dg, struct{}{})

	case wire.HeaderHello:
		net.Insert(peer)
		dg.Swap()
		dg.Data.SetHeader(wire.HeaderHello)
		outcome.PushNotice(ctx, dg, struct{}{})
	}
}
