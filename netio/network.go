/*
File Name:  network.go
Package:    netio

Network wraps a pair of UDP sockets (receive and send, which may be the
same socket) together with a registry of known clients, and exposes the
three ways a node addresses the outside world: unicast send/receive,
multicast to every registered client, and broadcast to the network's
gateway address.
*/

package netio

import (
	"context"
	"net"
	"sync"
	"syscall"

	"github.com/Azoozya/toktok/wire"
)

// maxFrame is the largest buffer a single receive needs: the 1026-byte
// overflow frame is the biggest a TLV can produce.
const maxFrame = 1026

// Network is a UDP socket adapter, safe for concurrent use.
type Network struct {
	server  *wire.Host
	gateway wire.Host
	rx      *net.UDPConn
	tx      *net.UDPConn

	mu            sync.Mutex
	clients       map[string]wire.Host
	broadcastable bool
}

// New constructs a Network around rx (always present) and an optional
// separate tx socket; when txSock is nil, rx is used for both directions.
// gateway is the address broadcast frames are sent to; server, when set,
// is this node's own advertised address.
func New(rx *net.UDPConn, txSock *net.UDPConn, gateway wire.Host, server *wire.Host) *Network {
	tx := txSock
	if tx == nil {
		tx = rx
	}

	return &Network{
		server:        server,
		gateway:       gateway,
		rx:            rx,
		tx:            tx,
		clients:       make(map[string]wire.Host),
		broadcastable: enableBroadcast(rx),
	}
}

// enableBroadcast sets SO_BROADCAST on the socket's file descriptor,
// mirroring the set_broadcast(true) call the underlying platform socket
// needs before a datagram to a broadcast address will actually leave the
// host. It returns false, without treating it as fatal, if the platform
// refuses the option.
func enableBroadcast(conn *net.UDPConn) bool {
	raw, err := conn.SyscallConn()
	if err != nil {
		return false
	}

	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1)
	})
	return err == nil && sockErr == nil
}

// SendTo writes dg to the network. If dg.Dst and override are both nil,
// nothing is sent and 0 is returned. override, when non-nil, takes
// priority over dg.Dst.
func (n *Network) SendTo(dg wire.Datagram, override *wire.Host) int {
	dst := dg.Dst
	if override != nil {
		dst = override
	}
	if dst == nil {
		return 0
	}

	raw := dg.Data.ToBytes()
	written, err := n.tx.WriteToUDP(raw, dst.UDPAddr())
	if err != nil {
		return 0
	}
	return written
}

// RecvFrom blocks until a datagram arrives or ctx is done. A malformed
// frame is surfaced as a Datagram carrying an empty, HeaderUnknown TLV,
// rather than as an error, matching the wire contract that any bytes
// received are handed up the pipeline for the dispatcher to classify.
func (n *Network) RecvFrom(ctx context.Context) (wire.Datagram, error) {
	type result struct {
		dg  wire.Datagram
		err error
	}
	out := make(chan result, 1)

	go func() {
		buf := make([]byte, maxFrame)
		length, addr, err := n.rx.ReadFromUDP(buf)
		if err != nil {
			out <- result{err: err}
			return
		}

		src := wire.HostFromUDPAddr(addr)
		tlv, ok := wire.FromBytes(buf[:length])
		if !ok {
			tlv, _ = wire.NewTLV(wire.HeaderUnknown, nil)
		}
		out <- result{dg: wire.NewReceived(src, tlv)}
	}()

	select {
	case <-ctx.Done():
		return wire.Datagram{}, ctx.Err()
	case r := <-out:
		return r.dg, r.err
	}
}

// Multicast sends dg to every currently registered client.
func (n *Network) Multicast(dg wire.Datagram) {
	n.mu.Lock()
	snapshot := make([]wire.Host, 0, len(n.clients))
	for _, c := range n.clients {
		snapshot = append(snapshot, c)
	}
	n.mu.Unlock()

	for i := range snapshot {
		n.SendTo(dg, &snapshot[i])
	}
}

// Broadcast sends dg to the network's gateway, if the socket was
// successfully configured for broadcast.
func (n *Network) Broadcast(dg wire.Datagram) {
	if n.broadcastable {
		n.SendTo(dg, &n.gateway)
	}
}

// Contains reports whether client's IP is already registered.
func (n *Network) Contains(client wire.Host) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.clients[client.IP().String()]
	return ok
}

// Insert registers client, keyed by its IP (not IP+port: two ports on the
// same device are treated as the same client, a deliberate choice so a
// device can only join the network once). It returns false if the client
// was already registered.
func (n *Network) Insert(client wire.Host) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	key := client.IP().String()
	if _, ok := n.clients[key]; ok {
		return false
	}
	n.clients[key] = client
	return true
}

// Remove unregisters client. It returns false if the client was not
// registered.
func (n *Network) Remove(client wire.Host) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	key := client.IP().String()
	if _, ok := n.clients[key]; !ok {
		return false
	}
	delete(n.clients, key)
	return true
}

// LocalAddr returns the address the receive socket is bound to.
func (n *Network) LocalAddr() wire.Host {
	return wire.HostFromUDPAddr(n.rx.LocalAddr().(*net.UDPAddr))
}

// Broadcastable reports whether SO_BROADCAST was successfully enabled.
func (n *Network) Broadcastable() bool {
	return n.broadcastable
}

// Close shuts down the underlying socket(s).
func (n *Network) Close() error {
	err := n.rx.Close()
	if n.tx != n.rx {
		if txErr := n.tx.Close(); err == nil {
			err = txErr
		}
	}
	return err
}
