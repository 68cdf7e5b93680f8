// Package dns implements the three-tier resolution chain and cache
// described in spec.md §3/§4.3: an immutable service registry, a parsed
// hosts-style map, and a system resolver, with a round-robin, TTL+LRU
// cache sitting in front of the chain.
package dns

import (
	"context"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dotindustries/warpgrid-sub001/internal/shimerr"
)

// Family tags an address as IPv4 or IPv6, matching the wire tag in
// spec.md §6.1/§6.3.
type Family uint8

const (
	FamilyV4 Family = iota
	FamilyV6
)

// Address is one resolved record. Bytes always holds 16 bytes; v4
// addresses occupy the low 4.
type Address struct {
	Family Family
	Bytes  [16]byte
}

// AddressFromIP converts a net.IP into the wire-shaped Address.
func AddressFromIP(ip net.IP) (Address, bool) {
	if v4 := ip.To4(); v4 != nil {
		var a Address
		a.Family = FamilyV4
		copy(a.Bytes[12:], v4)
		return a, true
	}
	if v6 := ip.To16(); v6 != nil {
		var a Address
		a.Family = FamilyV6
		copy(a.Bytes[:], v6)
		return a, true
	}
	return Address{}, false
}

// SystemResolver is the capability interface for the third tier — a small
// seam so tests can substitute a mock instead of issuing real queries.
// The production implementation is backed by miekg/dns (see resolver.go).
type SystemResolver interface {
	Resolve(ctx context.Context, hostname string) ([]Address, error)
}

// Registry is the immutable case-insensitive service registry, tier one
// of the chain.
type Registry struct {
	entries map[string][]Address
}

// NewRegistry builds an immutable registry from a host → address list map.
// Keys are lowercased at construction; lookups lowercase the query too.
func NewRegistry(entries map[string][]Address) *Registry {
	r := &Registry{entries: make(map[string][]Address, len(entries))}
	for host, addrs := range entries {
		r.entries[strings.ToLower(host)] = addrs
	}
	return r
}

func (r *Registry) lookup(host string) []Address {
	if r == nil {
		return nil
	}
	return r.entries[strings.ToLower(host)]
}

// HostsFile is the immutable parsed hosts-style map, tier two.
type HostsFile struct {
	entries map[string][]Address
}

// NewHostsFile builds an immutable hosts map, same casing rules as Registry.
func NewHostsFile(entries map[string][]Address) *HostsFile {
	h := &HostsFile{entries: make(map[string][]Address, len(entries))}
	for host, addrs := range entries {
		h.entries[strings.ToLower(host)] = addrs
	}
	return h
}

func (h *HostsFile) lookup(host string) []Address {
	if h == nil {
		return nil
	}
	return h.entries[strings.ToLower(host)]
}

type cacheEntry struct {
	addresses []Address
	createdAt time.Time
	rrCounter uint64 // atomic round-robin cursor
	lastAccess int64 // atomic, unix nanos
}

// Cache is the mutex-guarded, TTL+LRU cache sitting in front of the chain.
// The critical section never awaits (hash-map operations only), so a
// plain sync.Mutex is correct per spec.md §5 — no async mutex needed here.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	entries map[string]*cacheEntry

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewCache constructs an empty cache with the given TTL and maximum entry
// count.
func NewCache(ttl time.Duration, maxSize int) *Cache {
	return &Cache{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]*cacheEntry),
	}
}

// Stats is a point-in-time snapshot of cache counters, exposed per
// spec.md §6.2.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// Stats returns a read-only snapshot of the cache counters, the same way
// the teacher's vmm.BackendCaps is a plain read-only struct rather than a
// streaming metrics endpoint.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	size := len(c.entries)
	c.mu.Unlock()
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      size,
	}
}

// get returns the next address in round-robin order and true if host has
// a live, unexpired cache entry. Expired entries are dropped here, lazily
// — there is no background sweep.
func (c *Cache) get(host string) (Address, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[host]
	if !ok {
		c.misses.Add(1)
		return Address{}, false
	}
	if time.Since(e.createdAt) > c.ttl {
		delete(c.entries, host)
		c.misses.Add(1)
		return Address{}, false
	}

	n := atomic.AddUint64(&e.rrCounter, 1) - 1
	atomic.StoreInt64(&e.lastAccess, time.Now().UnixNano())
	c.hits.Add(1)
	return e.addresses[n%uint64(len(e.addresses))], true
}

// put inserts a freshly resolved, non-empty address list. Errors and
// empty results are never cached (spec.md §3/§4.3).
func (c *Cache) put(host string, addrs []Address) {
	if len(addrs) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[host]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}

	c.entries[host] = &cacheEntry{
		addresses: addrs,
		createdAt: time.Now(),
	}
}

// evictOldestLocked performs the linear scan for the least-recently
// accessed entry. O(n), bounded by maxSize. Caller holds c.mu.
func (c *Cache) evictOldestLocked() {
	var oldestHost string
	var oldestStamp int64 = 1<<63 - 1
	for host, e := range c.entries {
		stamp := atomic.LoadInt64(&e.lastAccess)
		if stamp == 0 {
			stamp = e.createdAt.UnixNano()
		}
		if stamp < oldestStamp {
			oldestStamp = stamp
			oldestHost = host
		}
	}
	if oldestHost != "" {
		delete(c.entries, oldestHost)
		c.evictions.Add(1)
	}
}

// Resolver is the full three-tier chain with a cache in front.
type Resolver struct {
	registry *Registry
	hosts    *HostsFile
	system   SystemResolver
	cache    *Cache
}

// Option configures a Resolver at construction.
type Option func(*Resolver)

// WithRegistry attaches the service-registry tier.
func WithRegistry(r *Registry) Option { return func(rv *Resolver) { rv.registry = r } }

// WithHostsFile attaches the parsed hosts-file tier.
func WithHostsFile(h *HostsFile) Option { return func(rv *Resolver) { rv.hosts = h } }

// WithSystemResolver attaches the system-resolver tier.
func WithSystemResolver(s SystemResolver) Option { return func(rv *Resolver) { rv.system = s } }

// New builds a Resolver with the given cache and options.
func New(cache *Cache, opts ...Option) *Resolver {
	r := &Resolver{cache: cache}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs the chain: cache → registry → hosts → system. The query is
// lowercased once up front; all tiers see the same lowercased key.
// Resolution stops at the first tier producing at least one address.
// shimerr.ErrHostNotFound is returned only if every tier returns empty.
func (r *Resolver) Resolve(ctx context.Context, hostname string) (Address, error) {
	host := strings.ToLower(hostname)

	if addr, ok := r.cache.get(host); ok {
		return addr, nil
	}

	if addrs := r.registry.lookup(host); len(addrs) > 0 {
		r.cache.put(host, addrs)
		addr, _ := r.cache.get(host)
		return addr, nil
	}

	if addrs := r.hosts.lookup(host); len(addrs) > 0 {
		r.cache.put(host, addrs)
		addr, _ := r.cache.get(host)
		return addr, nil
	}

	if r.system != nil {
		addrs, err := r.system.Resolve(ctx, host)
		if err != nil {
			return Address{}, err
		}
		if len(addrs) > 0 {
			r.cache.put(host, addrs)
			addr, _ := r.cache.get(host)
			return addr, nil
		}
	}

	return Address{}, shimerr.ErrHostNotFound
}

// ResolveAll is like Resolve but returns the full address list from
// whichever tier answered, without going through the round-robin cache
// cursor. Used where a caller genuinely wants every record (e.g. tests
// asserting on S, not just the next round-robin pick).
func (r *Resolver) ResolveAll(ctx context.Context, hostname string) ([]Address, error) {
	host := strings.ToLower(hostname)

	if addrs := r.registry.lookup(host); len(addrs) > 0 {
		return addrs, nil
	}
	if addrs := r.hosts.lookup(host); len(addrs) > 0 {
		return addrs, nil
	}
	if r.system != nil {
		addrs, err := r.system.Resolve(ctx, host)
		if err != nil {
			return nil, err
		}
		if len(addrs) > 0 {
			return addrs, nil
		}
	}
	return nil, shimerr.ErrHostNotFound
}
