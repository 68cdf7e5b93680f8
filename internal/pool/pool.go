// Package pool implements the keyed, bounded connection pool manager
// described in spec.md §3/§4.6/§8: per-key semaphore-bounded checkout,
// LIFO idle reuse, background reaping and health checks, and a drain for
// controlled shutdown. Modeled on the teacher's
// internal/lifecycle.Manager, which owns a map of per-instance state
// behind a mutex and drives background state transitions the same shape
// this pool drives reaping/health-check loops — generalized here from
// one VM instance per key to many pooled connections per key, and from a
// single mutex to golang.org/x/sync/semaphore.Weighted for the actual
// checkout permit (the primitive the checkout algorithm in spec.md §4.6
// names directly: "acquire one permit... bounded by the caller's
// timeout").
package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/dotindustries/warpgrid-sub001/internal/protocol"
	"github.com/dotindustries/warpgrid-sub001/internal/shimerr"
	"github.com/dotindustries/warpgrid-sub001/internal/transport"
)

// Key is the tuple that distinguishes independent connection pools
// (spec.md §3).
type Key struct {
	Host     string
	Port     int
	Database string
	User     string
	Protocol protocol.Kind
}

func (k Key) addr() string {
	return fmt.Sprintf("%s:%d", k.Host, k.Port)
}

// Config controls one key's pool behavior (spec.md §4.8).
type Config struct {
	MaxSize          int
	IdleReapTimeout  time.Duration
	HealthCheckEvery time.Duration
	ReadTimeout      time.Duration
	CheckoutWait     time.Duration
	UseTLS           bool
	TLSOptions       []transport.TLSOption
}

// DefaultConfig returns the manager's fallback per-key configuration when
// none is supplied explicitly.
func DefaultConfig() Config {
	return Config{
		MaxSize:          10,
		IdleReapTimeout:  5 * time.Minute,
		HealthCheckEvery: 30 * time.Second,
		ReadTimeout:      5 * time.Second,
		CheckoutWait:     3 * time.Second,
	}
}

type record struct {
	handle     uint64
	transport  transport.Transport
	key        Key
	createdAt  time.Time
	lastUsed   time.Time
	unhealthy  bool
}

type keyState struct {
	mu      sync.Mutex
	cfg     Config
	sem     *semaphore.Weighted
	idle    []*record // LIFO: last element is most recently released
	total   atomic.Int64
	started bool
	cancel  context.CancelFunc
}

// Manager is the pool manager. The zero value is not usable; construct
// with New.
type Manager struct {
	mu         sync.Mutex
	keys       map[Key]*keyState
	checkedOut map[uint64]*record
	nextHandle atomic.Uint64
	factory    transport.Factory
	defaultCfg Config
	group      *errgroup.Group
	groupCtx   context.Context
	draining   atomic.Bool
}

// New constructs a pool manager. factory opens new transports on
// checkout misses; defaultCfg applies to every key (there is no per-key
// override).
func New(factory transport.Factory, defaultCfg Config) *Manager {
	group, gctx := errgroup.WithContext(context.Background())
	return &Manager{
		keys:       make(map[Key]*keyState),
		checkedOut: make(map[uint64]*record),
		factory:    factory,
		defaultCfg: defaultCfg,
		group:      group,
		groupCtx:   gctx,
	}
}

func (m *Manager) stateFor(key Key) *keyState {
	m.mu.Lock()
	defer m.mu.Unlock()

	ks, ok := m.keys[key]
	if ok {
		return ks
	}

	cfg := m.defaultCfg
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultConfig().MaxSize
	}
	ks = &keyState{
		cfg: cfg,
		sem: semaphore.NewWeighted(int64(cfg.MaxSize)),
	}
	m.keys[key] = ks
	m.startBackgroundLocked(key, ks)
	return ks
}

func (m *Manager) startBackgroundLocked(key Key, ks *keyState) {
	ctx, cancel := context.WithCancel(m.groupCtx)
	ks.cancel = cancel
	ks.started = true

	m.group.Go(func() error {
		reapTicker := time.NewTicker(pickInterval(ks.cfg.IdleReapTimeout))
		healthTicker := time.NewTicker(pickInterval(ks.cfg.HealthCheckEvery))
		defer reapTicker.Stop()
		defer healthTicker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-reapTicker.C:
				m.reapIdle(key, ks)
			case <-healthTicker.C:
				m.healthCheckIdle(key, ks)
			}
		}
	})
}

func pickInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Minute
	}
	return d
}

// Checkout implements the checkout algorithm in spec.md §4.6: acquire a
// permit bounded by timeout, try the idle LIFO queue (validating health),
// otherwise dial a fresh connection via the factory, then assign a handle.
func (m *Manager) Checkout(ctx context.Context, key Key) (uint64, transport.Transport, error) {
	if m.draining.Load() {
		return 0, nil, shimerr.ErrCheckoutTimeout
	}

	ks := m.stateFor(key)

	acquireCtx := ctx
	var cancel context.CancelFunc
	if ks.cfg.CheckoutWait > 0 {
		acquireCtx, cancel = context.WithTimeout(ctx, ks.cfg.CheckoutWait)
		defer cancel()
	}

	if err := ks.sem.Acquire(acquireCtx, 1); err != nil {
		return 0, nil, shimerr.ErrCheckoutTimeout
	}
	// From here on, any early return must release the permit — it is
	// "forgotten" until release/destroy, never returned implicitly.
	permitHeld := true
	releasePermit := func() {
		if permitHeld {
			ks.sem.Release(1)
			permitHeld = false
		}
	}

	for {
		ks.mu.Lock()
		n := len(ks.idle)
		var rec *record
		if n > 0 {
			rec = ks.idle[n-1]
			ks.idle = ks.idle[:n-1]
		}
		ks.mu.Unlock()

		if rec == nil {
			break
		}

		healthy, _ := rec.transport.Ping(ctx)
		if !healthy {
			// rec came off the idle queue and holds no permit of its own;
			// the permit acquired above for this checkout is still held
			// and carries through to the dial below.
			m.destroyIdle(key, ks, rec)
			continue
		}
		rec.lastUsed = time.Now()
		return m.assignHandle(rec), rec.transport, nil
	}

	t, err := m.factory.Dial(ctx, key.addr(), ks.cfg.UseTLS, ks.cfg.TLSOptions...)
	if err != nil {
		releasePermit()
		return 0, nil, fmt.Errorf("%w: %v", shimerr.ErrConnectFailure, err)
	}
	t = protocol.Wrap(key.Protocol, t)

	rec := &record{
		transport: t,
		key:       key,
		createdAt: time.Now(),
		lastUsed:  time.Now(),
	}
	ks.total.Add(1)
	return m.assignHandle(rec), rec.transport, nil
}

func (m *Manager) assignHandle(rec *record) uint64 {
	h := m.nextHandle.Add(1)
	rec.handle = h
	m.mu.Lock()
	m.checkedOut[h] = rec
	m.mu.Unlock()
	return h
}

// Release returns a checked-out connection to its key's idle queue, or
// destroys it (still returning the permit) if it was marked unhealthy
// during use.
func (m *Manager) Release(handle uint64) error {
	m.mu.Lock()
	rec, ok := m.checkedOut[handle]
	if ok {
		delete(m.checkedOut, handle)
	}
	m.mu.Unlock()
	if !ok {
		return shimerr.ErrBadHandle
	}

	ks := m.stateFor(rec.key)
	if rec.unhealthy {
		m.destroyCheckedOut(rec.key, ks, rec)
		return nil
	}

	rec.lastUsed = time.Now()
	ks.mu.Lock()
	ks.idle = append(ks.idle, rec)
	ks.mu.Unlock()
	ks.sem.Release(1)
	return nil
}

// destroyCheckedOut closes rec's transport, decrements the key's total
// count, and returns the checkout permit rec was holding. Use this for
// records that were still checked out at the time of destruction
// (Release, Close, Drain) — never for idle-origin destroys, which hold
// no permit of their own.
func (m *Manager) destroyCheckedOut(key Key, ks *keyState, rec *record) {
	_ = rec.transport.Close()
	ks.total.Add(-1)
	ks.sem.Release(1)
}

// destroyIdle closes rec's transport and decrements the key's total
// count, without releasing a permit. Idle records (reap, health check,
// or a failed revalidation during Checkout) hold no permit — the permit
// for an idle slot was already returned to the semaphore by the Release
// call that put rec there. Never re-inserts rec anywhere.
func (m *Manager) destroyIdle(key Key, ks *keyState, rec *record) {
	_ = rec.transport.Close()
	ks.total.Add(-1)
}

func (m *Manager) lookupCheckedOut(handle uint64) (*record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.checkedOut[handle]
	return rec, ok
}

// Send writes b on the connection behind handle.
func (m *Manager) Send(ctx context.Context, handle uint64, b []byte) (int, error) {
	rec, ok := m.lookupCheckedOut(handle)
	if !ok {
		return 0, shimerr.ErrBadHandle
	}
	n, err := rec.transport.Send(ctx, b)
	if err != nil {
		rec.unhealthy = true
		return n, fmt.Errorf("%w: %v", shimerr.ErrTransportError, err)
	}
	return n, nil
}

// Recv reads up to max bytes from the connection behind handle, bounded
// by the key's configured read timeout.
func (m *Manager) Recv(ctx context.Context, handle uint64, max int) ([]byte, error) {
	rec, ok := m.lookupCheckedOut(handle)
	if !ok {
		return nil, shimerr.ErrBadHandle
	}

	ks := m.stateFor(rec.key)
	recvCtx := ctx
	var cancel context.CancelFunc
	if ks.cfg.ReadTimeout > 0 {
		recvCtx, cancel = context.WithTimeout(ctx, ks.cfg.ReadTimeout)
		defer cancel()
	}

	data, err := rec.transport.Recv(recvCtx, max)
	if err != nil {
		rec.unhealthy = true
		return nil, fmt.Errorf("%w: %v", shimerr.ErrTransportError, err)
	}
	return data, nil
}

// Close closes the connection behind handle outright (not a release back
// to idle) and returns its permit.
func (m *Manager) Close(handle uint64) error {
	m.mu.Lock()
	rec, ok := m.checkedOut[handle]
	if ok {
		delete(m.checkedOut, handle)
	}
	m.mu.Unlock()
	if !ok {
		return shimerr.ErrBadHandle
	}
	ks := m.stateFor(rec.key)
	m.destroyCheckedOut(rec.key, ks, rec)
	return nil
}

// reapIdle destroys idle connections whose idle time exceeds the key's
// configured maximum.
func (m *Manager) reapIdle(key Key, ks *keyState) {
	ks.mu.Lock()
	var keep []*record
	var expired []*record
	now := time.Now()
	for _, rec := range ks.idle {
		if ks.cfg.IdleReapTimeout > 0 && now.Sub(rec.lastUsed) > ks.cfg.IdleReapTimeout {
			expired = append(expired, rec)
		} else {
			keep = append(keep, rec)
		}
	}
	ks.idle = keep
	ks.mu.Unlock()

	for _, rec := range expired {
		m.destroyIdle(key, ks, rec)
	}
}

// healthCheckIdle pings idle connections and destroys those that fail.
func (m *Manager) healthCheckIdle(key Key, ks *keyState) {
	ks.mu.Lock()
	snapshot := make([]*record, len(ks.idle))
	copy(snapshot, ks.idle)
	ks.mu.Unlock()

	var dead []*record
	for _, rec := range snapshot {
		healthy, _ := rec.transport.Ping(context.Background())
		if !healthy {
			dead = append(dead, rec)
		}
	}
	if len(dead) == 0 {
		return
	}

	deadSet := make(map[uint64]bool, len(dead))
	for _, rec := range dead {
		deadSet[rec.handle] = true
	}

	ks.mu.Lock()
	var keep []*record
	for _, rec := range ks.idle {
		if !deadSet[rec.handle] {
			keep = append(keep, rec)
		}
	}
	ks.idle = keep
	ks.mu.Unlock()

	for _, rec := range dead {
		m.destroyIdle(key, ks, rec)
	}
}

// Stats is a point-in-time snapshot for one key, exposed per spec.md §6.2.
type Stats struct {
	Active int
	Idle   int
	Total  int
}

// Stats returns the current active/idle/total counts for key.
func (m *Manager) Stats(key Key) Stats {
	ks := m.stateFor(key)
	ks.mu.Lock()
	idle := len(ks.idle)
	ks.mu.Unlock()
	total := int(ks.total.Load())
	return Stats{Active: total - idle, Idle: idle, Total: total}
}

// Drain stops accepting new checkouts, waits up to timeout for
// checked-out connections to return, then forcibly closes the remainder.
func (m *Manager) Drain(timeout time.Duration) error {
	m.draining.Store(true)

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		n := len(m.checkedOut)
		m.mu.Unlock()
		if n == 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	m.mu.Lock()
	remaining := make([]*record, 0, len(m.checkedOut))
	for h, rec := range m.checkedOut {
		remaining = append(remaining, rec)
		delete(m.checkedOut, h)
	}
	m.mu.Unlock()

	for _, rec := range remaining {
		ks := m.stateFor(rec.key)
		m.destroyCheckedOut(rec.key, ks, rec)
	}

	m.mu.Lock()
	for _, ks := range m.keys {
		if ks.cancel != nil {
			ks.cancel()
		}
	}
	m.mu.Unlock()

	return nil
}
