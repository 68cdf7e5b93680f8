package transport

import (
	"context"
	"net"
	"testing"
	"time"
)

func echoServer(t *testing.T) (addr string, closeFn func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 4096)
				for {
					n, err := c.Read(buf)
					if n > 0 {
						c.Write(buf[:n])
					}
					if err != nil {
						return
					}
				}
			}(c)
		}
	}()
	return ln.Addr().String(), func() { ln.Close() }
}

func TestDialSendRecv_ByteFidelity(t *testing.T) {
	addr, closeFn := echoServer(t)
	defer closeFn()

	conn, err := DialTCP(context.Background(), addr)
	if err != nil {
		t.Fatalf("DialTCP: %v", err)
	}
	defer conn.Close()

	pattern := []byte{0x00, 0x01, 0x02, 0x00, 0xff, 0x00, 0x10, 0x11, 0x12, 0x13, 0x00, 0x00, 0x00, 0x14, 0x15, 0x16, 0x17}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	n, err := conn.Send(ctx, pattern)
	if err != nil || n != len(pattern) {
		t.Fatalf("Send: n=%d err=%v", n, err)
	}

	got, err := conn.Recv(ctx, 64)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if len(got) != len(pattern) {
		t.Fatalf("Recv length mismatch: got %d want %d", len(got), len(pattern))
	}
	for i := range pattern {
		if got[i] != pattern[i] {
			t.Fatalf("byte %d: got %x want %x", i, got[i], pattern[i])
		}
	}
}

func TestPing_TimeoutMeansHealthyIdle(t *testing.T) {
	addr, closeFn := echoServer(t)
	defer closeFn()

	conn, err := DialTCP(context.Background(), addr)
	if err != nil {
		t.Fatalf("DialTCP: %v", err)
	}
	defer conn.Close()

	healthy, err := conn.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if !healthy {
		t.Errorf("expected idle connection with no buffered bytes to be healthy")
	}
}

func TestPing_ClosedPeerIsUnhealthy(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		c.Close()
	}()

	conn, err := DialTCP(context.Background(), ln.Addr().String())
	if err != nil {
		t.Fatalf("DialTCP: %v", err)
	}
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)

	healthy, err := conn.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if healthy {
		t.Errorf("expected closed peer to be reported unhealthy")
	}
}
