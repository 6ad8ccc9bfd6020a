/*
File Name:  heartbeat.go
Package:    workers

heartbeater multicasts a PING to every known client on a fixed cadence: a
burst of three, 500ms apart, then a longer 5-second rest.
*/

package workers

import (
	"context"
	"time"

	"github.com/Azoozya/toktok/netio"
	"github.com/Azoozya/toktok/signal"
	"github.com/Azoozya/toktok/wire"
)

const (
	heartbeatBurst    = 3
	heartbeatInterval = 500 * time.Millisecond
	heartbeatRest     = 5 * time.Second
)

// Heartbeat runs until the backbone reports shutdown or ctx is cancelled.
// Each cycle starts with a backbone check, per the cooperative shutdown
// protocol. backbone must already be a subscribed handle.
func Heartbeat(ctx context.Context, net *netio.Network, backbone signal.Signal[struct{}]) {
	defer backbone.Close()
	ping, _ := wire.NewTLV(wire.HeaderPing, nil)

	for {
		if shuttingDown(backbone) {
			return
		}

		for i := 0; i < heartbeatBurst; i++ {
			net.Multicast(wire.Datagram{Data: ping})

			select {
			case <-ctx.Done():
				return
			case <-time.After(heartbeatInterval):
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(heartbeatRest):
		}
	}
}
