package netio

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/Azoozya/toktok/wire"
)

func bindLoopback(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP failed: %v", err)
	}
	return conn
}

func TestNetworkEcho(t *testing.T) {
	serverConn := bindLoopback(t)
	defer serverConn.Close()
	clientConn := bindLoopback(t)
	defer clientConn.Close()

	serverNet := New(serverConn, nil, wire.MustHost("127.255.255.255:0"), nil)
	clientNet := New(clientConn, nil, wire.MustHost("127.255.255.255:0"), nil)

	serverAddr := wire.HostFromUDPAddr(serverConn.LocalAddr().(*net.UDPAddr))

	payload, _ := wire.NewTLV(wire.HeaderHello, []byte("hi"))
	toSend := wire.NewToSend(serverAddr, payload)

	if n := clientNet.SendTo(toSend, nil); n == 0 {
		t.Fatal("client send failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	received, err := serverNet.RecvFrom(ctx)
	if err != nil {
		t.Fatalf("server recv failed: %v", err)
	}
	if !received.Data.Equal(payload) {
		t.Fatalf("payload mismatch: got %+v want %+v", received.Data, payload)
	}

	received.Swap()
	if n := serverNet.SendTo(received, nil); n == 0 {
		t.Fatal("server echo send failed")
	}

	echoed, err := clientNet.RecvFrom(ctx)
	if err != nil {
		t.Fatalf("client recv failed: %v", err)
	}
	if !echoed.Data.Equal(payload) {
		t.Fatalf("echoed payload mismatch: got %+v want %+v", echoed.Data, payload)
	}
}

func TestNetworkInsertContainsRemove(t *testing.T) {
	conn := bindLoopback(t)
	defer conn.Close()

	nw := New(conn, nil, wire.MustHost("127.255.255.255:4444"), nil)

	one := wire.MustHost("127.0.0.1:1111")
	two := wire.MustHost("127.0.0.2:2222")
	three := wire.MustHost("127.0.0.3:3333")

	if !nw.Insert(one) || !nw.Insert(two) || !nw.Insert(three) {
		t.Fatal("expected first insert of each client to succeed")
	}

	if nw.Insert(one) {
		t.Fatal("expected re-insert of an existing client to fail")
	}

	if !nw.Remove(two) {
		t.Fatal("expected remove of an existing client to succeed")
	}

	if nw.Contains(two) {
		t.Fatal("expected removed client to no longer be contained")
	}

	if nw.Remove(two) {
		t.Fatal("expected second remove to fail")
	}
}

func TestNetworkMulticastReachesAllClients(t *testing.T) {
	serverConn := bindLoopback(t)
	defer serverConn.Close()

	oneConn := bindLoopback(t)
	defer oneConn.Close()
	// The registry is keyed by IP, so the second client needs its own
	// loopback address to count as a distinct client.
	twoConn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP("127.0.0.2"), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP failed: %v", err)
	}
	defer twoConn.Close()

	serverNet := New(serverConn, nil, wire.MustHost("127.255.255.255:0"), nil)

	one := wire.HostFromUDPAddr(oneConn.LocalAddr().(*net.UDPAddr))
	two := wire.HostFromUDPAddr(twoConn.LocalAddr().(*net.UDPAddr))

	serverNet.Insert(one)
	serverNet.Insert(two)

	payload, _ := wire.NewTLV(wire.HeaderUnknown, []byte{6, 6, 6})
	serverNet.Multicast(wire.Datagram{Data: payload})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	oneNet := New(oneConn, nil, wire.MustHost("127.255.255.255:0"), nil)
	twoNet := New(twoConn, nil, wire.MustHost("127.255.255.255:0"), nil)

	gotOne, err := oneNet.RecvFrom(ctx)
	if err != nil {
		t.Fatalf("client one recv failed: %v", err)
	}
	if !gotOne.Data.Equal(payload) {
		t.Fatal("client one payload mismatch")
	}

	gotTwo, err := twoNet.RecvFrom(ctx)
	if err != nil {
		t.Fatalf("client two recv failed: %v", err)
	}
	if !gotTwo.Data.Equal(payload) {
		t.Fatal("client two payload mismatch")
	}
}
