// Package transport implements the blocking TCP/TLS connection backend
// described in spec.md §4.5: send, receive with a read timeout, a
// non-destructive ping health probe, and close. Modeled on the teacher's
// NetControlChannel (internal/vmm/channel.go), which already does
// deadline-scoped Send/Recv over a net.Conn — this generalizes that shape
// from newline-delimited JSON-RPC framing to raw byte passthrough, since
// the database proxy must never parse or reframe the wire protocol
// (spec.md §4.5/§6.3).
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"
)

// Transport is the capability interface the pool manager and protocol
// decorators depend on, not a concrete TCP/TLS type — this is the seam
// spec.md §9 calls out for mock implementations in tests.
type Transport interface {
	Send(ctx context.Context, b []byte) (int, error)
	Recv(ctx context.Context, max int) ([]byte, error)
	Ping(ctx context.Context) (bool, error)
	Close() error
}

// Factory opens a new Transport for a given address, applying TLS policy
// when useTLS is true. The pool manager calls this on a cache miss.
type Factory interface {
	Dial(ctx context.Context, addr string, useTLS bool, opts ...TLSOption) (Transport, error)
}

// Conn is the concrete TCP/TLS Transport implementation.
type Conn struct {
	conn net.Conn
}

// TLSOption configures the TLS policy used by DialTLS.
type TLSOption func(*tls.Config)

// Insecure disables certificate and hostname verification. It must be
// passed explicitly — spec.md §4.5 requires that insecure mode never be
// the default, so there is no bare boolean flag for it, only this named
// option a caller has to reach for on purpose.
func Insecure() TLSOption {
	return func(c *tls.Config) { c.InsecureSkipVerify = true }
}

// DialTCP opens a plaintext TCP connection with Nagle's algorithm
// disabled, minimizing wire-protocol request/response latency for the
// chatty Postgres/MySQL/Redis ping exchanges in spec.md §4.6.
func DialTCP(ctx context.Context, addr string) (*Conn, error) {
	d := net.Dialer{}
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial tcp %s: %w", addr, err)
	}
	if tc, ok := c.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return &Conn{conn: c}, nil
}

// DialTLS opens a TLS connection over TCP. Default verification uses the
// system CA pool plus hostname verification; pass Insecure() to disable
// both for test-only use, per spec.md §4.5. Go's crypto/tls has exactly
// one runtime TLS provider, so there is no "implicit provider panic"
// surface to guard against — the explicit-provider-selection requirement
// in spec.md §4.5/§9 is met trivially by there being nothing to select.
func DialTLS(ctx context.Context, addr, serverName string, opts ...TLSOption) (*Conn, error) {
	plain, err := DialTCP(ctx, addr)
	if err != nil {
		return nil, err
	}

	cfg := &tls.Config{ServerName: serverName}
	for _, opt := range opts {
		opt(cfg)
	}

	tlsConn := tls.Client(plain.conn, cfg)
	if deadline, ok := ctx.Deadline(); ok {
		_ = tlsConn.SetDeadline(deadline)
		defer tlsConn.SetDeadline(time.Time{})
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = plain.conn.Close()
		return nil, fmt.Errorf("tls handshake %s: %w", addr, err)
	}
	return &Conn{conn: tlsConn}, nil
}

// Send writes b, respecting ctx's deadline the same way
// NetControlChannel.Send scopes a write deadline to the call.
func (c *Conn) Send(ctx context.Context, b []byte) (int, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	n, err := c.conn.Write(b)
	if err != nil {
		return n, fmt.Errorf("transport send: %w", err)
	}
	return n, nil
}

// Recv reads up to max bytes, blocking until at least one byte is
// available or ctx's deadline passes.
func (c *Conn) Recv(ctx context.Context, max int) ([]byte, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(deadline)
		defer c.conn.SetReadDeadline(time.Time{})
	}
	buf := make([]byte, max)
	n, err := c.conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("transport recv: %w", err)
	}
	return buf[:n], nil
}

// Ping is the default, protocol-agnostic health probe: a short-timeout
// readability check. Zero bytes read means the peer closed the
// connection (unhealthy); a timeout means the connection is alive and
// idle (healthy); any other readable bytes are unexpected buffered data,
// also unhealthy (spec.md §4.5).
func (c *Conn) Ping(ctx context.Context) (bool, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()

	_ = c.conn.SetReadDeadline(mustDeadline(pingCtx))
	defer c.conn.SetReadDeadline(time.Time{})

	buf := make([]byte, 1)
	n, err := c.conn.Read(buf)
	if n > 0 {
		// Unexpected buffered bytes on an idle connection: unhealthy.
		return false, nil
	}
	if err == nil {
		return false, nil
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return true, nil
	}
	// Any other read error (EOF, connection reset) means the peer closed.
	return false, nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

func mustDeadline(ctx context.Context) time.Time {
	d, ok := ctx.Deadline()
	if !ok {
		return time.Now().Add(200 * time.Millisecond)
	}
	return d
}
