// Package shimerr defines the abstract error kinds the shim host core
// surfaces to guests and to its own callers. Each kind is a sentinel that
// call sites compare with errors.Is, mirroring how the rest of the core
// uses named states instead of bare strings.
package shimerr

import "errors"

var (
	// ErrNotAVirtualPath is returned by Open when the path is not served by
	// the virtual file map. The guest is expected to fall through to the
	// real WASI filesystem.
	ErrNotAVirtualPath = errors.New("not a virtual path")

	// ErrReadOnlyFilesystem is returned when a write-mode open targets any
	// virtual path other than an absorb entry.
	ErrReadOnlyFilesystem = errors.New("read-only filesystem")

	// ErrBadHandle is returned for operations against an unknown or closed
	// handle, in both the filesystem and pool handle tables.
	ErrBadHandle = errors.New("bad handle")

	// ErrHostNotFound is returned when all three DNS resolution tiers
	// return an empty address list.
	ErrHostNotFound = errors.New("host not found")

	// ErrCheckoutTimeout is returned when a pool checkout exceeds the
	// caller's wait timeout.
	ErrCheckoutTimeout = errors.New("checkout timeout")

	// ErrConnectFailure is returned when the pool's connection factory
	// fails to establish a new transport (TCP dial or TLS handshake).
	ErrConnectFailure = errors.New("connect failure")

	// ErrTransportError is returned when send/recv/close on an established
	// connection fails.
	ErrTransportError = errors.New("transport error")

	// ErrAlreadyDeclared is returned when a guest declares its threading
	// model more than once.
	ErrAlreadyDeclared = errors.New("threading model already declared")
)
