// Package dnsadapter is the synchronous façade the guest-visible dns
// interface calls into (spec.md §6.1). Resolution ultimately may need to
// perform network I/O at the system-resolver tier, so Resolve bridges
// through internal/asyncbridge rather than blocking the caller's
// goroutine exclusively.
package dnsadapter

import (
	"context"
	"time"

	"github.com/dotindustries/warpgrid-sub001/internal/asyncbridge"
	"github.com/dotindustries/warpgrid-sub001/internal/dns"
	"github.com/dotindustries/warpgrid-sub001/internal/guestapi"
)

// DefaultTimeout bounds a single resolve call when the caller supplies no
// deadline of its own.
const DefaultTimeout = 5 * time.Second

// Adapter wraps a *dns.Resolver behind the guest-visible synchronous
// resolve call.
type Adapter struct {
	resolver *dns.Resolver
}

// New builds an adapter over an already-constructed resolver. The
// resolver itself is immutable/shared state (registry, hosts) plus a
// mutex-guarded cache, so a single Adapter safely serves every instance —
// no per-instance handle table is needed here, unlike filesystem or pool
// handles.
func New(resolver *dns.Resolver) *Adapter {
	return &Adapter{resolver: resolver}
}

// Resolve looks up hostname and returns one address per the cache's
// round-robin policy, wire-shaped per spec.md §6.1/§6.3.
func (a *Adapter) Resolve(ctx context.Context, hostname string) (dns.Address, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}
	return asyncbridge.Run(ctx, func() (dns.Address, error) {
		return a.resolver.Resolve(ctx, hostname)
	})
}

// ResolveAll returns every address record for hostname rather than a
// single round-robin pick, for guests that want the full record set.
func (a *Adapter) ResolveAll(ctx context.Context, hostname string) ([]dns.Address, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}
	return a.resolver.ResolveAll(ctx, hostname)
}

// ResolveWire is Resolve, encoded to the guest-visible wire record
// spec.md §6.3 defines: a 17-byte family-tag-plus-address record.
func (a *Adapter) ResolveWire(ctx context.Context, hostname string) ([guestapi.AddressRecordSize]byte, error) {
	addr, err := a.Resolve(ctx, hostname)
	if err != nil {
		return [guestapi.AddressRecordSize]byte{}, err
	}
	return guestapi.EncodeAddress(addr), nil
}

// ResolveAllWire is ResolveAll, encoded as one concatenated 17-byte
// record per address, per spec.md §6.3's "repeated for multi-record
// results."
func (a *Adapter) ResolveAllWire(ctx context.Context, hostname string) ([]byte, error) {
	addrs, err := a.ResolveAll(ctx, hostname)
	if err != nil {
		return nil, err
	}
	return guestapi.EncodeAddresses(addrs), nil
}
