package transport

import (
	"context"
	"net"
)

// TCPFactory is the production Factory: DialTCP for plaintext, DialTLS
// for wrapped connections.
type TCPFactory struct {
	// ServerName is used for TLS hostname verification. When empty, the
	// host portion of addr is used.
	ServerName string
}

// Dial implements Factory.
func (f *TCPFactory) Dial(ctx context.Context, addr string, useTLS bool, opts ...TLSOption) (Transport, error) {
	if !useTLS {
		return DialTCP(ctx, addr)
	}
	serverName := f.ServerName
	if serverName == "" {
		if host, _, err := net.SplitHostPort(addr); err == nil {
			serverName = host
		}
	}
	return DialTLS(ctx, addr, serverName, opts...)
}
