// Package fsadapter is the synchronous façade the guest-visible filesystem
// interface (spec.md §6.1) calls into. It owns a per-instance handle table
// over a shared, immutable vfs.Map and never touches the real WASI
// filesystem — non-virtual paths are reported as such so the guest's own
// runtime can fall through to it.
package fsadapter

import (
	"sync"

	"github.com/dotindustries/warpgrid-sub001/internal/shimerr"
	"github.com/dotindustries/warpgrid-sub001/internal/vfs"
)

// Whence mirrors the three seek origins spec.md §4.2 requires.
type Whence int

const (
	SeekSet Whence = iota
	SeekCur
	SeekEnd
)

// Mode is the open mode requested by the guest.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
)

// Stat is the result of a Stat call.
type Stat struct {
	Size int64
	Kind vfs.Kind
}

type openFile struct {
	outcome vfs.Outcome
	cursor  int64
}

// Adapter is the per-instance filesystem façade. Zero value is not usable;
// construct with New.
type Adapter struct {
	mu      sync.Mutex
	fileMap *vfs.Map
	next    uint64
	open    map[uint64]*openFile
}

// New builds an adapter bound to a shared, immutable virtual file map.
// Handle ids start at 1; 0 is the invalid sentinel (spec.md §3).
func New(fileMap *vfs.Map) *Adapter {
	return &Adapter{
		fileMap: fileMap,
		next:    1,
		open:    make(map[uint64]*openFile),
	}
}

// Open resolves path through the virtual map. A non-virtual path returns
// shimerr.ErrNotAVirtualPath; write mode against a non-absorb virtual path
// returns shimerr.ErrReadOnlyFilesystem. A successful open allocates a
// fresh handle with the cursor at 0.
func (a *Adapter) Open(path string, mode Mode) (uint64, error) {
	outcome := a.fileMap.Lookup(path)
	if !outcome.Found {
		return 0, shimerr.ErrNotAVirtualPath
	}
	if mode == ModeWrite && outcome.Kind != vfs.KindAbsorb {
		return 0, shimerr.ErrReadOnlyFilesystem
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	h := a.next
	a.next++
	a.open[h] = &openFile{outcome: outcome, cursor: 0}
	return h, nil
}

// Read copies at most max bytes from the handle's current cursor,
// advancing it. Buffered (static/prefix) providers return fewer bytes at
// end of content; random returns fresh bytes every call regardless of
// cursor; absorb always returns zero bytes.
func (a *Adapter) Read(handle uint64, max int) ([]byte, error) {
	a.mu.Lock()
	f, ok := a.open[handle]
	a.mu.Unlock()
	if !ok {
		return nil, shimerr.ErrBadHandle
	}

	switch f.outcome.Kind {
	case vfs.KindAbsorb:
		return nil, nil
	case vfs.KindRandom:
		return vfs.ReadRandom(max), nil
	default:
		a.mu.Lock()
		defer a.mu.Unlock()
		data := f.outcome.Data
		if f.cursor >= int64(len(data)) {
			return nil, nil
		}
		end := f.cursor + int64(max)
		if end > int64(len(data)) {
			end = int64(len(data))
		}
		chunk := data[f.cursor:end]
		out := make([]byte, len(chunk))
		copy(out, chunk)
		f.cursor = end
		return out, nil
	}
}

// Seek repositions the cursor for buffered providers. It is a no-op
// (returns the unchanged notional position) for absorb/random handles,
// since neither has content length semantics.
func (a *Adapter) Seek(handle uint64, whence Whence, offset int64) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	f, ok := a.open[handle]
	if !ok {
		return 0, shimerr.ErrBadHandle
	}

	if f.outcome.Kind == vfs.KindAbsorb || f.outcome.Kind == vfs.KindRandom {
		return 0, nil
	}

	size := int64(len(f.outcome.Data))
	var newPos int64
	switch whence {
	case SeekSet:
		newPos = offset
	case SeekCur:
		newPos = f.cursor + offset
	case SeekEnd:
		newPos = size + offset
	}
	if newPos < 0 {
		newPos = 0
	}
	f.cursor = newPos
	return newPos, nil
}

// Stat reports the size and provider kind for an open handle.
func (a *Adapter) Stat(handle uint64) (Stat, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	f, ok := a.open[handle]
	if !ok {
		return Stat{}, shimerr.ErrBadHandle
	}
	return Stat{Size: int64(len(f.outcome.Data)), Kind: f.outcome.Kind}, nil
}

// Close frees the handle slot. Subsequent operations on it fail with
// ErrBadHandle. Closing does not renumber or reuse the slot.
func (a *Adapter) Close(handle uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.open[handle]; !ok {
		return shimerr.ErrBadHandle
	}
	delete(a.open, handle)
	return nil
}
