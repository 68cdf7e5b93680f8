package dbadapter

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dotindustries/warpgrid-sub001/internal/pool"
	"github.com/dotindustries/warpgrid-sub001/internal/protocol"
	"github.com/dotindustries/warpgrid-sub001/internal/shimerr"
	"github.com/dotindustries/warpgrid-sub001/internal/transport"
)

type mockTransport struct {
	closed bool
}

func (t *mockTransport) Send(ctx context.Context, b []byte) (int, error) { return len(b), nil }
func (t *mockTransport) Recv(ctx context.Context, max int) ([]byte, error) {
	return []byte("ok"), nil
}
func (t *mockTransport) Ping(ctx context.Context) (bool, error) { return true, nil }
func (t *mockTransport) Close() error {
	t.closed = true
	return nil
}

type mockFactory struct {
	calls atomic.Int64
}

func (f *mockFactory) Dial(ctx context.Context, addr string, useTLS bool, opts ...transport.TLSOption) (transport.Transport, error) {
	f.calls.Add(1)
	return &mockTransport{}, nil
}

func testRequest() ConnectRequest {
	return ConnectRequest{Host: "127.0.0.1", Port: 5432, Database: "app", User: "app", Protocol: protocol.KindPostgres}
}

func TestConnectSucceedsOnPoolMiss(t *testing.T) {
	m := pool.New(&mockFactory{}, pool.Config{MaxSize: 1, CheckoutWait: time.Second})
	a := New(m)

	h, err := a.Connect(context.Background(), testRequest(), time.Second)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if h == 0 {
		t.Errorf("expected a non-zero handle")
	}
	if err := a.Close(context.Background(), h); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestConnectMapsCheckoutTimeoutToShimErr(t *testing.T) {
	m := pool.New(&mockFactory{}, pool.Config{MaxSize: 1, CheckoutWait: time.Second})
	a := New(m)

	h1, err := a.Connect(context.Background(), testRequest(), time.Second)
	if err != nil {
		t.Fatalf("connect 1: %v", err)
	}

	// The pool is now exhausted (MaxSize=1); a second connect must time out
	// and surface shimerr.ErrCheckoutTimeout, not the bridge's raw
	// context.DeadlineExceeded.
	_, err = a.Connect(context.Background(), testRequest(), 20*time.Millisecond)
	if err != shimerr.ErrCheckoutTimeout {
		t.Fatalf("expected ErrCheckoutTimeout, got %v", err)
	}

	if err := a.Close(context.Background(), h1); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestConnectTimeoutLeaksNoPermit(t *testing.T) {
	m := pool.New(&mockFactory{}, pool.Config{MaxSize: 1, CheckoutWait: time.Second})
	a := New(m)

	h1, err := a.Connect(context.Background(), testRequest(), time.Second)
	if err != nil {
		t.Fatalf("connect 1: %v", err)
	}

	// Start a second connect with a short checkout wait while the pool is
	// still exhausted, so it times out from the caller's perspective ...
	_, err = a.Connect(context.Background(), testRequest(), 10*time.Millisecond)
	if err != shimerr.ErrCheckoutTimeout {
		t.Fatalf("expected ErrCheckoutTimeout, got %v", err)
	}

	// ... then release the first handle. The timed-out call's checkout
	// goroutine waits on the same expired context, so it has given up too;
	// give any goroutine still running a moment to finish.
	if err := a.Close(context.Background(), h1); err != nil {
		t.Fatalf("close 1: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	// The timed-out connect must not have left a permit or handle checked
	// out — so the pool can still satisfy a fresh connect.
	h2, err := a.Connect(context.Background(), testRequest(), time.Second)
	if err != nil {
		t.Fatalf("connect after late release: %v", err)
	}
	if err := a.Close(context.Background(), h2); err != nil {
		t.Fatalf("close 2: %v", err)
	}
}
