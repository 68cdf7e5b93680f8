// Package engine composes the per-instance shim adapters from a
// config.Config, grounded on cmd/aegisd/main.go's sequential
// construct-wire-log pattern and on internal/lifecycle.Manager's
// instance map lifecycle. Wiring is structural: a shim whose config
// field is nil never gets an adapter, queue, or pool allocated for it.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dotindustries/warpgrid-sub001/internal/config"
	"github.com/dotindustries/warpgrid-sub001/internal/dns"
	"github.com/dotindustries/warpgrid-sub001/internal/host/dbadapter"
	"github.com/dotindustries/warpgrid-sub001/internal/host/dnsadapter"
	"github.com/dotindustries/warpgrid-sub001/internal/host/fsadapter"
	"github.com/dotindustries/warpgrid-sub001/internal/host/signaladapter"
	"github.com/dotindustries/warpgrid-sub001/internal/host/threadadapter"
	"github.com/dotindustries/warpgrid-sub001/internal/logging"
	"github.com/dotindustries/warpgrid-sub001/internal/pool"
	"github.com/dotindustries/warpgrid-sub001/internal/signalqueue"
	"github.com/dotindustries/warpgrid-sub001/internal/transport"
	"github.com/dotindustries/warpgrid-sub001/internal/vfs"
)

const (
	defaultDNSCacheTTL        = 30 * time.Second
	defaultDNSCacheCapacity   = 1000
	defaultDNSUpstreamTimeout = 5 * time.Second
)

// Engine holds the process-wide state shared across every instance it
// spins up: the shim configuration and the shared database connection
// pool (connections are keyed by target, not by instance, per spec.md
// §4.6, so the pool itself is engine-scoped rather than instance-scoped).
type Engine struct {
	cfg config.Config

	dbPool *pool.Manager

	mu        sync.Mutex
	instances map[string]*Instance
}

// Instance is one guest component's live set of host-trait adapters.
// Fields are nil for any shim the config disabled or the guest doesn't
// import.
type Instance struct {
	ID string

	FS       *fsadapter.Adapter
	DNS      *dnsadapter.Adapter
	Signals  *signaladapter.Adapter
	DB       *dbadapter.Adapter
	Threads  *threadadapter.Adapter

	engine *Engine
}

// New builds an Engine from cfg. The database pool, if the db-proxy shim
// is enabled, is constructed once here and shared by every instance.
func New(cfg config.Config) *Engine {
	log := logging.Component("engine")
	e := &Engine{
		cfg:       cfg,
		instances: make(map[string]*Instance),
	}

	if cfg.DBProxy != nil && cfg.DBProxy.Enabled {
		poolCfg := pool.DefaultConfig()
		if cfg.DBProxy.MaxSize > 0 {
			poolCfg.MaxSize = cfg.DBProxy.MaxSize
		}
		if cfg.DBProxy.IdleReapTimeout > 0 {
			poolCfg.IdleReapTimeout = cfg.DBProxy.IdleReapTimeout
		}
		if cfg.DBProxy.HealthCheckEvery > 0 {
			poolCfg.HealthCheckEvery = cfg.DBProxy.HealthCheckEvery
		}
		if cfg.DBProxy.CheckoutWait > 0 {
			poolCfg.CheckoutWait = cfg.DBProxy.CheckoutWait
		}
		poolCfg.UseTLS = cfg.DBProxy.UseTLS
		e.dbPool = pool.New(&transport.TCPFactory{}, poolCfg)
		log.Info().Msg("database-proxy shim enabled")
	}
	if cfg.FS != nil && cfg.FS.Enabled {
		log.Info().Msg("filesystem shim enabled")
	}
	if cfg.DNS != nil && cfg.DNS.Enabled {
		log.Info().Str("upstream", cfg.DNS.Upstream).Msg("dns shim enabled")
	}
	if cfg.Signals != nil && cfg.Signals.Enabled {
		log.Info().Msg("signal shim enabled")
	}

	return e
}

// Instantiate builds one Instance's set of adapters, constructing only
// the ones both enabled in configuration and present in imports (here,
// "present in imports" is approximated by the caller's imports argument,
// the set of host interfaces the guest component actually declares —
// the real component-model binding performs that detection at load time;
// this engine takes the resolved set as input rather than parsing guest
// bytes itself).
func (e *Engine) Instantiate(ctx context.Context, id string, imports map[string]bool) (*Instance, error) {
	if id == "" {
		id = uuid.NewString()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.instances[id]; exists {
		return nil, fmt.Errorf("engine: instance %q already exists", id)
	}

	inst := &Instance{ID: id, engine: e}

	if imports["filesystem"] && e.cfg.FS != nil && e.cfg.FS.Enabled {
		inst.FS = fsadapter.New(vfs.DefaultMap())
	}
	if imports["dns"] && e.cfg.DNS != nil && e.cfg.DNS.Enabled {
		ttl := defaultDNSCacheTTL
		capacity := e.cfg.DNS.CacheCapacity
		if capacity <= 0 {
			capacity = defaultDNSCacheCapacity
		}
		cache := dns.NewCache(ttl, capacity)

		// An empty Upstream makes MiekgResolver fall back to the OS resolver.
		timeout := e.cfg.DNS.UpstreamTimeout
		if timeout <= 0 {
			timeout = defaultDNSUpstreamTimeout
		}
		resolver := dns.New(cache, dns.WithSystemResolver(&dns.MiekgResolver{
			Upstream: e.cfg.DNS.Upstream,
			Timeout:  timeout,
		}))
		inst.DNS = dnsadapter.New(resolver)
	}
	if imports["signals"] && e.cfg.Signals != nil && e.cfg.Signals.Enabled {
		inst.Signals = signaladapter.New(id, e.cfg.Signals.Capacity)
	}
	if imports["db-proxy"] && e.cfg.DBProxy != nil && e.cfg.DBProxy.Enabled {
		inst.DB = dbadapter.New(e.dbPool)
	}
	inst.Threads = threadadapter.New(e.cfg.ThreadingMode)

	e.instances[id] = inst

	log := logging.Component("engine")
	log.Info().Str("instance", id).Msg("instance wired")

	return inst, nil
}

// Close tears down inst, removing it from the engine's routing tables.
// The shared database pool is untouched — its connections outlive any
// single instance.
func (inst *Instance) Close() {
	e := inst.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.instances, inst.ID)
}

// DeliverSignal routes a host-originated signal to the named instance's
// queue, per spec.md §6.2 deliver-signal(instance-id, kind). Returns
// false if no such instance, or the instance has no signals adapter.
func (e *Engine) DeliverSignal(id string, kind signalqueue.Kind) bool {
	e.mu.Lock()
	inst, ok := e.instances[id]
	e.mu.Unlock()
	if !ok || inst.Signals == nil {
		return false
	}
	inst.Signals.Deliver(kind)
	return true
}
