// Package signaladapter is the synchronous façade the guest-visible
// signals interface calls into. Both operations are non-suspending per
// spec.md §5, so there is no asyncbridge use here — the underlying
// signalqueue.Queue is already safe to call from multiple goroutines
// (delivery happens on the host's path, polling on the guest's).
package signaladapter

import (
	"github.com/dotindustries/warpgrid-sub001/internal/logging"
	"github.com/dotindustries/warpgrid-sub001/internal/signalqueue"
)

// Adapter wraps a single instance's signal queue.
type Adapter struct {
	queue *signalqueue.Queue
}

// New builds an adapter whose queue logs overflow evictions at warn level
// under the "signals" component, per spec.md §7 (queue-overflow: "Logged
// at warn; oldest dropped; new signal enqueued"). capacity <= 0 falls
// back to signalqueue.DefaultCapacity.
func New(instanceID string, capacity int) *Adapter {
	log := logging.Component("signals")
	q := signalqueue.New(capacity, func(evicted signalqueue.Kind) {
		log.Warn().
			Str("instance", instanceID).
			Str("evicted", evicted.String()).
			Msg("signal queue overflow, dropping oldest pending signal")
	})
	return &Adapter{queue: q}
}

// OnSignal registers interest in kind, per the guest-visible
// on-signal(kind) operation.
func (a *Adapter) OnSignal(kind signalqueue.Kind) {
	a.queue.RegisterInterest(kind)
}

// PollSignal returns the oldest queued signal, or false if none is
// pending, per the guest-visible poll-signal() operation.
func (a *Adapter) PollSignal() (signalqueue.Kind, bool) {
	return a.queue.Poll()
}

// Deliver is the host-side entry point (spec.md §6.2
// deliver-signal(instance-id, kind)); the engine routes by instance id
// into the matching adapter's Deliver.
func (a *Adapter) Deliver(kind signalqueue.Kind) {
	a.queue.Deliver(kind)
}
