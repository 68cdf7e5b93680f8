// Package vfs implements the immutable virtual file map described in
// spec.md §3/§4.1: a builder-constructed, read-only path → content-provider
// mapping that serves synthetic content for a fixed set of system paths a
// WASI guest expects to exist.
package vfs

import (
	"crypto/rand"
	"path"
	"strings"
)

// Kind discriminates how a provider produces content.
type Kind int

const (
	// KindAbsorb reads as empty and discards all writes.
	KindAbsorb Kind = iota
	// KindRandom generates fresh cryptographic bytes on every read.
	KindRandom
	// KindStatic serves a shared immutable byte buffer.
	KindStatic
	// KindPrefix serves a buffer selected by the sub-path remainder after
	// a matched prefix.
	KindPrefix
)

// Provider is a single virtual-file-map entry's content strategy.
type Provider struct {
	Kind Kind

	// Data backs KindStatic. Shared and never mutated after Build.
	Data []byte

	// PrefixLookup backs KindPrefix: given the sub-path remainder (the
	// portion of the canonical path after the matched prefix), it returns
	// the buffer to serve and whether one exists.
	PrefixLookup func(remainder string) ([]byte, bool)
}

// Outcome is the result of a Lookup.
type Outcome struct {
	Found    bool
	Kind     Kind
	Data     []byte
	Provider Provider
}

// Map is an immutable, concurrency-safe path → Provider mapping. The zero
// value is not usable; construct one with NewBuilder.
type Map struct {
	exact    map[string]Provider
	prefixes []prefixEntry
}

type prefixEntry struct {
	prefix   string
	provider Provider
}

// Builder accumulates entries before a one-shot Build call produces an
// immutable Map. Not safe for concurrent use; Build is meant to run once
// at process startup.
type Builder struct {
	exact    map[string]Provider
	prefixes []prefixEntry
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{exact: make(map[string]Provider)}
}

// Absorb registers an entry at path that reads empty and discards writes.
func (b *Builder) Absorb(path string) *Builder {
	b.exact[canonical(path)] = Provider{Kind: KindAbsorb}
	return b
}

// Random registers an entry at path that generates fresh bytes per read.
func (b *Builder) Random(path string) *Builder {
	b.exact[canonical(path)] = Provider{Kind: KindRandom}
	return b
}

// Static registers an entry at path backed by an immutable buffer.
func (b *Builder) Static(path string, data []byte) *Builder {
	b.exact[canonical(path)] = Provider{Kind: KindStatic, Data: data}
	return b
}

// Prefix registers a prefix-mapped entry: any canonical path beginning
// with prefix is served by lookup(remainder), where remainder is the
// portion of the path following prefix.
func (b *Builder) Prefix(prefix string, lookup func(remainder string) ([]byte, bool)) *Builder {
	b.prefixes = append(b.prefixes, prefixEntry{
		prefix:   canonical(prefix),
		provider: Provider{Kind: KindPrefix, PrefixLookup: lookup},
	})
	return b
}

// Build freezes the builder into an immutable Map. Longest-prefix-first
// ordering is computed once here so Lookup never has to sort.
func (b *Builder) Build() *Map {
	prefixes := make([]prefixEntry, len(b.prefixes))
	copy(prefixes, b.prefixes)
	for i := 1; i < len(prefixes); i++ {
		j := i
		for j > 0 && len(prefixes[j].prefix) > len(prefixes[j-1].prefix) {
			prefixes[j], prefixes[j-1] = prefixes[j-1], prefixes[j]
			j--
		}
	}
	exact := make(map[string]Provider, len(b.exact))
	for k, v := range b.exact {
		exact[k] = v
	}
	return &Map{exact: exact, prefixes: prefixes}
}

// Lookup resolves path to a total Outcome: lookup never errors. Exact
// matches win; otherwise the longest matching prefix's provider is
// consulted with the remainder. A non-matching path yields Found=false.
func (m *Map) Lookup(path string) Outcome {
	p := canonical(path)

	if prov, ok := m.exact[p]; ok {
		return outcomeFor(prov)
	}

	for _, pe := range m.prefixes {
		if p == pe.prefix || strings.HasPrefix(p, pe.prefix+"/") {
			remainder := strings.TrimPrefix(p, pe.prefix)
			remainder = strings.TrimPrefix(remainder, "/")
			data, ok := pe.provider.PrefixLookup(remainder)
			if !ok {
				continue
			}
			return Outcome{Found: true, Kind: KindStatic, Data: data}
		}
	}

	return Outcome{Found: false}
}

func outcomeFor(p Provider) Outcome {
	switch p.Kind {
	case KindAbsorb:
		return Outcome{Found: true, Kind: KindAbsorb}
	case KindRandom:
		return Outcome{Found: true, Kind: KindRandom}
	default:
		return Outcome{Found: true, Kind: KindStatic, Data: p.Data}
	}
}

// ReadRandom generates n fresh cryptographically random bytes, used by
// the random provider kind on every read regardless of cursor position.
func ReadRandom(n int) []byte {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return buf
}

// canonical resolves "." and ".." components and collapses duplicate
// separators, clamping any ".." that would otherwise escape the root — it
// never returns a path outside "/". The virtual map has no backing
// directory to protect (spec.md's Non-goals explicitly excludes arbitrary
// filesystem mounts), so this is pure lexical resolution via path.Clean
// rather than a symlink-aware real-directory join: there is nothing on
// disk for a symlink-safe joiner to resolve against.
func canonical(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	cleaned := path.Clean(p)
	// path.Clean already collapses "a/../b" and duplicate separators, and
	// for an absolute path it can never produce something above "/" — but
	// make the clamp explicit rather than relying on that as an implicit
	// guarantee.
	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/"
	}
	return cleaned
}

// Canonical exposes path canonicalization for callers (e.g. tests
// checking the idempotence property) without needing a Map.
func Canonical(p string) string {
	return canonical(p)
}
