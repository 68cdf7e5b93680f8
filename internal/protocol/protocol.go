// Package protocol implements the per-database ping decorators described
// in spec.md §4.6/§6.3: a wrapper transport.Transport per wire protocol
// that overrides only Ping, delegating Send/Recv/Close untouched. The
// pool key's protocol discriminator selects the wrapper at factory time.
package protocol

import (
	"bytes"
	"context"

	"github.com/dotindustries/warpgrid-sub001/internal/transport"
)

// Kind discriminates which wire protocol a pool key speaks.
type Kind int

const (
	KindPostgres Kind = iota
	KindMySQL
	KindRedis
)

func (k Kind) String() string {
	switch k {
	case KindPostgres:
		return "postgres"
	case KindMySQL:
		return "mysql"
	case KindRedis:
		return "redis"
	default:
		return "unknown"
	}
}

// Wrap decorates inner with the ping behavior for kind. Send/Recv/Close
// are pure delegation in every case.
func Wrap(kind Kind, inner transport.Transport) transport.Transport {
	switch kind {
	case KindMySQL:
		return mysqlWrapper{inner}
	case KindRedis:
		return redisWrapper{inner}
	default:
		return postgresWrapper{inner}
	}
}

// postgresWrapper's ping is the transport's own non-destructive TCP
// readability probe — Postgres has no lightweight ping message in its
// wire protocol, so this is a no-op beyond what transport.Conn already
// does.
type postgresWrapper struct{ transport.Transport }

func (w postgresWrapper) Ping(ctx context.Context) (bool, error) {
	return w.Transport.Ping(ctx)
}

// comPingPacket is MySQL's COM_PING command packet: a 3-byte little-endian
// payload length (1), sequence id (0), and command byte 0x0e (COM_PING).
var comPingPacket = []byte{0x01, 0x00, 0x00, 0x00, 0x0e}

// mysqlWrapper sends COM_PING and expects an OK packet in response. This
// is destructive in the sense that it writes to the wire, unlike the
// Postgres/default probe — spec.md §4.6 specifies this as the protocol's
// required ping behavior regardless.
type mysqlWrapper struct{ transport.Transport }

func (w mysqlWrapper) Ping(ctx context.Context) (bool, error) {
	if _, err := w.Transport.Send(ctx, comPingPacket); err != nil {
		return false, nil
	}
	resp, err := w.Transport.Recv(ctx, 64)
	if err != nil {
		return false, nil
	}
	// An OK packet's payload starts with 0x00 (header byte) after the
	// 4-byte packet header (length + sequence id).
	if len(resp) < 5 {
		return false, nil
	}
	return resp[4] == 0x00, nil
}

// redisInlinePing and redisPongReply are the exact byte sequences spec.md
// §4.6/§6.3 names: any change here is an externally observable behavior
// change.
var redisInlinePing = []byte("PING\r\n")
var redisPongReply = []byte("+PONG\r\n")

// redisWrapper sends an inline PING and expects +PONG\r\n.
type redisWrapper struct{ transport.Transport }

func (w redisWrapper) Ping(ctx context.Context) (bool, error) {
	if _, err := w.Transport.Send(ctx, redisInlinePing); err != nil {
		return false, nil
	}
	resp, err := w.Transport.Recv(ctx, len(redisPongReply))
	if err != nil {
		return false, nil
	}
	return bytes.Equal(resp, redisPongReply), nil
}
