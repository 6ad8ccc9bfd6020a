package workers

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/Azoozya/toktok/netio"
	"github.com/Azoozya/toktok/wire"
	"github.com/sirupsen/logrus"
)

func bindLoopback(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP failed: %v", err)
	}
	return conn
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l.WithField("test", true)
}

func TestPipelineHelloRegistersClient(t *testing.T) {
	serverConn := bindLoopback(t)
	defer serverConn.Close()
	clientConn := bindLoopback(t)
	defer clientConn.Close()

	serverNet := netio.New(serverConn, nil, wire.MustHost("127.255.255.255:0"), nil)
	clientNet := netio.New(clientConn, nil, wire.MustHost("127.255.255.255:0"), nil)
	serverAddr := serverNet.LocalAddr()
	clientAddr := clientNet.LocalAddr()

	ctx, cancel := context.WithCancel(context.Background())
	sup := Start(ctx, serverNet, false, nil, testLogger())

	hello, _ := wire.NewTLV(wire.HeaderHello, nil)
	clientNet.SendTo(wire.NewToSend(serverAddr, hello), nil)

	recvCtx, recvCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer recvCancel()
	reply, err := clientNet.RecvFrom(recvCtx)
	if err != nil {
		t.Fatalf("client did not receive HELLO ack: %v", err)
	}
	if reply.Data.Header() != wire.HeaderHello {
		t.Fatalf("expected HELLO ack, got %v", reply.Data.Header())
	}

	if !serverNet.Contains(clientAddr) {
		t.Fatal("expected server to have registered the client")
	}

	cancel()
	sup.Wait()
}

func TestPipelinePingBecomesPong(t *testing.T) {
	serverConn := bindLoopback(t)
	defer serverConn.Close()
	clientConn := bindLoopback(t)
	defer clientConn.Close()

	serverNet := netio.New(serverConn, nil, wire.MustHost("127.255.255.255:0"), nil)
	clientNet := netio.New(clientConn, nil, wire.MustHost("127.255.255.255:0"), nil)
	serverAddr := serverNet.LocalAddr()

	ctx, cancel := context.WithCancel(context.Background())
	sup := Start(ctx, serverNet, false, nil, testLogger())

	ping, _ := wire.NewTLV(wire.HeaderPing, nil)
	clientNet.SendTo(wire.NewToSend(serverAddr, ping), nil)

	recvCtx, recvCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer recvCancel()
	reply, err := clientNet.RecvFrom(recvCtx)
	if err != nil {
		t.Fatalf("client did not receive PONG: %v", err)
	}
	if reply.Data.Header() != wire.HeaderPong {
		t.Fatalf("expected PONG, got %v", reply.Data.Header())
	}

	cancel()
	sup.Wait()
}

func TestPipelineUnknownIsDropped(t *testing.T) {
	serverConn := bindLoopback(t)
	defer serverConn.Close()
	clientConn := bindLoopback(t)
	defer clientConn.Close()

	serverNet := netio.New(serverConn, nil, wire.MustHost("127.255.255.255:0"), nil)
	clientNet := netio.New(clientConn, nil, wire.MustHost("127.255.255.255:0"), nil)
	serverAddr := serverNet.LocalAddr()

	ctx, cancel := context.WithCancel(context.Background())
	sup := Start(ctx, serverNet, false, nil, testLogger())

	unknown, _ := wire.NewTLV(wire.HeaderUnknown, nil)
	clientNet.SendTo(wire.NewToSend(serverAddr, unknown), nil)

	recvCtx, recvCancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer recvCancel()
	if _, err := clientNet.RecvFrom(recvCtx); err == nil {
		t.Fatal("expected no reply for an UNKNOWN datagram")
	}

	cancel()
	sup.Wait()
}
