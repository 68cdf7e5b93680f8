// Package threadadapter is the synchronous façade the guest-visible
// threading interface calls into: a one-time advisory declaration of
// whether the guest expects parallelism or cooperative scheduling
// (spec.md §6.1 "Threading model declaration").
package threadadapter

import (
	"sync"

	"github.com/dotindustries/warpgrid-sub001/internal/shimerr"
)

// Model is the guest's declared expectation.
type Model int

const (
	ModelParallelRequired Model = iota
	ModelCooperative
)

// Adapter tracks whether the per-instance declaration has already been
// made. Declaring twice is an error, not a silent overwrite (spec.md
// §7 already-declared). defaultModel is the engine-configured threading
// sub-object's fallback, used by EffectiveModel before the guest ever
// declares anything of its own.
type Adapter struct {
	mu           sync.Mutex
	declared     bool
	model        Model
	defaultModel Model
}

// New builds an adapter with no declaration made yet, falling back to
// defaultModel until the guest declares its own.
func New(defaultModel Model) *Adapter {
	return &Adapter{defaultModel: defaultModel}
}

// DeclareThreadingModel records model on first call; a second call for
// the same instance returns shimerr.ErrAlreadyDeclared.
func (a *Adapter) DeclareThreadingModel(model Model) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.declared {
		return shimerr.ErrAlreadyDeclared
	}
	a.declared = true
	a.model = model
	return nil
}

// Declared reports whether a declaration has been made and, if so, which
// model.
func (a *Adapter) Declared() (Model, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model, a.declared
}

// EffectiveModel returns the guest's declared model if one was made, or
// the engine's configured default otherwise.
func (a *Adapter) EffectiveModel() Model {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.declared {
		return a.model
	}
	return a.defaultModel
}
