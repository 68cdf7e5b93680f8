// Package dbadapter is the synchronous façade the guest-visible
// database-proxy interface calls into (spec.md §6.1). It is pure byte
// passthrough over a pool.Manager — credentials in ConnectRequest are
// part of the wire protocol the guest speaks and are never inspected
// here (spec.md §4.5 "Authentication").
package dbadapter

import (
	"context"
	"time"

	"github.com/dotindustries/warpgrid-sub001/internal/asyncbridge"
	"github.com/dotindustries/warpgrid-sub001/internal/pool"
	"github.com/dotindustries/warpgrid-sub001/internal/protocol"
	"github.com/dotindustries/warpgrid-sub001/internal/shimerr"
)

// ConnectRequest mirrors the guest-visible connect() parameters.
// Password is part of the wire protocol passthrough, never consumed here.
type ConnectRequest struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	Protocol protocol.Kind
}

// Adapter wraps a shared pool.Manager behind the guest-visible
// connect/send/recv/close calls. One Adapter is shared across every
// instance the way the pool manager itself is shared — connections are
// keyed by {host, port, database, user, protocol}, not by instance.
type Adapter struct {
	pool *pool.Manager
}

// New builds an adapter over an already-constructed pool manager.
func New(p *pool.Manager) *Adapter {
	return &Adapter{pool: p}
}

// Connect checks out a connection for req, dialing a fresh transport on a
// pool miss. Checkout is suspending work (spec.md §5). It is not routed
// through the generic asyncbridge.Run helper: that helper discards a late
// result once ctx is done, but a checkout that succeeds just after this
// call gives up still holds a pool permit and a handle that must be
// released (spec.md §5 "cancellation releases reserved resources"), so
// Connect tracks its own checkout goroutine to catch that case.
func (a *Adapter) Connect(ctx context.Context, req ConnectRequest, checkoutWait time.Duration) (uint64, error) {
	key := pool.Key{
		Host:     req.Host,
		Port:     req.Port,
		Database: req.Database,
		User:     req.User,
		Protocol: req.Protocol,
	}
	checkoutCtx := ctx
	var cancel context.CancelFunc
	if checkoutWait > 0 {
		checkoutCtx, cancel = context.WithTimeout(ctx, checkoutWait)
	} else {
		cancel = func() {}
	}

	type result struct {
		handle uint64
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		h, _, err := a.pool.Checkout(checkoutCtx, key)
		ch <- result{handle: h, err: err}
	}()

	select {
	case r := <-ch:
		cancel()
		return r.handle, r.err
	case <-checkoutCtx.Done():
		go func() {
			r := <-ch
			cancel()
			if r.err == nil {
				_ = a.pool.Release(r.handle)
			}
		}()
		return 0, shimerr.ErrCheckoutTimeout
	}
}

// Send writes bytes on handle's connection, returning the number sent.
func (a *Adapter) Send(ctx context.Context, handle uint64, b []byte) (int, error) {
	return asyncbridge.Run(ctx, func() (int, error) {
		return a.pool.Send(ctx, handle, b)
	})
}

// Recv reads up to max bytes from handle's connection.
func (a *Adapter) Recv(ctx context.Context, handle uint64, max int) ([]byte, error) {
	return asyncbridge.Run(ctx, func() ([]byte, error) {
		return a.pool.Recv(ctx, handle, max)
	})
}

// Close releases handle back to the pool's idle queue (not a hard close —
// spec.md's guest-visible close() is the proxy's connect/close lifecycle,
// which maps onto pool release so the underlying transport can be
// reused by the next connect() with the same key).
func (a *Adapter) Close(ctx context.Context, handle uint64) error {
	_, err := asyncbridge.Run(ctx, func() (struct{}, error) {
		return struct{}{}, a.pool.Release(handle)
	})
	return err
}
