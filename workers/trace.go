/*
File Name:  trace.go
Package:    workers

tracer is reserved: the core worker pipeline does not require it. It is
wired into Supervisor behind a disabled-by-default flag so a future build
can record UNKNOWN datagrams to the Core table without changing the
pipeline's shape, but it does not execute any SQL today.
*/

package workers

import (
	"context"
	"time"

	"github.com/Azoozya/toktok/signal"
	"github.com/Azoozya/toktok/wire"
	"gorm.io/gorm"
)

// traceStatements are the statements a future tracer would run against the
// store.Core table; kept here, unexecuted, as the contract Trace type-checks
// against.
const (
	traceStmtRead           = "SELECT * FROM cores WHERE addr = ?"
	traceStmtWriteOpenSSH   = "UPDATE cores SET open_ssh_id = ?, open_ssh_pub = ? WHERE addr = ?"
	traceStmtWriteActivity  = "UPDATE cores SET active = ?, last_activity = ? WHERE addr = ?"
)

// Trace drains traced, the feed to which Dispatch offers every datagram it
// pops. It never issues a query against db; db is accepted so the
// call site and its lifetime management already match what a future,
// executing tracer will need. When traced is empty it rests for gracetime
// before polling again, rather than blocking indefinitely, so it never
// holds up shutdown.
func Trace(ctx context.Context, traced signal.Signal[wire.Datagram], db *gorm.DB, gracetime time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, ok, err := traced.TryRecv()
		if err != nil {
			return
		}

		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(gracetime):
			}
			continue
		}

		// TODO: once the Core persistence layer is promoted out of
		// contract-only status, execute traceStmtWriteActivity here.
	}
}
