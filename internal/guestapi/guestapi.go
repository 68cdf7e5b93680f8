// Package guestapi defines the field-exact Go types mirroring the
// component-model interfaces named in spec.md §6.1, plus the wire
// encoding of DNS address records from §6.3. Modeled on the teacher's
// internal/harness/guestapi.go, which already carries exactly this kind
// of typed request/response boundary for a host↔guest RPC surface — this
// generalizes that shape from the teacher's JSON-RPC guest-harness
// protocol to the five component-model interfaces this spec names.
package guestapi

import (
	"fmt"

	"github.com/dotindustries/warpgrid-sub001/internal/dns"
	"github.com/dotindustries/warpgrid-sub001/internal/protocol"
	"github.com/dotindustries/warpgrid-sub001/internal/signalqueue"
)

// AddressRecordSize is the wire size of one DNS address record: a 1-byte
// family tag plus a 16-byte address (spec.md §6.3).
const AddressRecordSize = 17

// EncodeAddress writes a to the wire format: 1-byte family tag + 16-byte
// address (v4 addresses occupy the low 4 bytes).
func EncodeAddress(a dns.Address) [AddressRecordSize]byte {
	var out [AddressRecordSize]byte
	out[0] = byte(a.Family)
	copy(out[1:], a.Bytes[:])
	return out
}

// DecodeAddress parses a single 17-byte wire record.
func DecodeAddress(b []byte) (dns.Address, error) {
	if len(b) != AddressRecordSize {
		return dns.Address{}, fmt.Errorf("decode address: want %d bytes, got %d", AddressRecordSize, len(b))
	}
	var a dns.Address
	a.Family = dns.Family(b[0])
	copy(a.Bytes[:], b[1:])
	return a, nil
}

// EncodeAddresses concatenates one record per address, matching spec.md
// §6.3 "repeated for multi-record results".
func EncodeAddresses(addrs []dns.Address) []byte {
	out := make([]byte, 0, len(addrs)*AddressRecordSize)
	for _, a := range addrs {
		rec := EncodeAddress(a)
		out = append(out, rec[:]...)
	}
	return out
}

// FSOpenMode mirrors the guest-visible open() mode parameter.
type FSOpenMode int

const (
	FSOpenRead FSOpenMode = iota
	FSOpenWrite
)

// FSWhence mirrors the guest-visible seek() whence parameter.
type FSWhence int

const (
	FSSeekSet FSWhence = iota
	FSSeekCur
	FSSeekEnd
)

// FSStat mirrors the guest-visible stat() result.
type FSStat struct {
	Size uint64
	Kind string // "regular", "absorb", "random"
}

// DBConnectRequest mirrors the guest-visible database-proxy connect()
// parameters.
type DBConnectRequest struct {
	Host     string
	Port     uint16
	Database string
	User     string
	Password string
	Protocol protocol.Kind
}

// SignalKind mirrors the guest-visible signals interface's closed enum.
type SignalKind = signalqueue.Kind

// ThreadingDeclaration mirrors the guest-visible
// declare-threading-model() parameter.
type ThreadingDeclaration int

const (
	ThreadingParallelRequired ThreadingDeclaration = iota
	ThreadingCooperative
)
