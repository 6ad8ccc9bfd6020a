/*
File Name:  receiver.go
Package:    workers

receiver pulls datagrams off the wire and hands them to the dispatcher via
a shared queue, until told to stop.
*/

package workers

import (
	"context"

	"github.com/Azoozya/toktok/netio"
	"github.com/Azoozya/toktok/signal"
	"github.com/Azoozya/toktok/wire"
	"github.com/sirupsen/logrus"
)

// Receive reads datagrams from net and pushes them onto income until the
// backbone reports shutdown, ctx is cancelled, or pushing onto income
// fails. A socket read error is logged and the loop carries on.
// It always closes income and its own backbone subscription before
// returning, so downstream workers waiting on it wake up and exit too.
// backbone must already be a subscribed handle (from Signal.Subscribe).
func Receive(ctx context.Context, net *netio.Network, income *signal.SharedFifo[wire.Datagram, struct{}], backbone signal.Signal[struct{}], log *logrus.Entry) error {
	defer backbone.Close()
	defer income.Close()

	for {
		if shuttingDown(backbone) {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}

		// recv_from is the receiver's one unbounded suspension point;
		// multiplexing against ctx here (rather than only checking the
		// backbone at the top of the loop) is what lets shutdown
		// interrupt a recv with no traffic arriving.
		dg, err := net.RecvFrom(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.WithError(err).Debug("receive: socket read failed")
			continue
		}

		if err := income.PushNotice(ctx, dg, struct{}{}); err != nil {
			return nil
		}
	}
}
