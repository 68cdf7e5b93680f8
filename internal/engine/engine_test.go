package engine

import (
	"context"
	"testing"

	"github.com/dotindustries/warpgrid-sub001/internal/config"
	"github.com/dotindustries/warpgrid-sub001/internal/signalqueue"
)

func TestInstantiateOnlyWiresEnabledAndImportedShims(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DNS = &config.DNSConfig{Enabled: false}

	e := New(cfg)

	inst, err := e.Instantiate(context.Background(), "inst-1", map[string]bool{
		"filesystem": true,
		"dns":        true, // imported by the guest, but disabled in config
		"signals":    true,
	})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	if inst.FS == nil {
		t.Error("expected filesystem adapter to be wired")
	}
	if inst.Signals == nil {
		t.Error("expected signals adapter to be wired")
	}
	if inst.DNS != nil {
		t.Error("expected dns adapter to stay nil: shim disabled in config even though imported")
	}
	if inst.DB != nil {
		t.Error("expected db adapter to stay nil: shim not imported by the guest")
	}
	if inst.Threads == nil {
		t.Error("expected a threading adapter unconditionally")
	}
}

func TestInstantiateDuplicateIDFails(t *testing.T) {
	e := New(config.DefaultConfig())
	if _, err := e.Instantiate(context.Background(), "dup", nil); err != nil {
		t.Fatalf("first instantiate: %v", err)
	}
	if _, err := e.Instantiate(context.Background(), "dup", nil); err == nil {
		t.Fatal("expected an error instantiating a duplicate instance id")
	}
}

func TestCloseRemovesInstanceFromRouting(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Signals = &config.SignalsConfig{Enabled: true}
	e := New(cfg)

	inst, err := e.Instantiate(context.Background(), "inst-1", map[string]bool{"signals": true})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	if !e.DeliverSignal("inst-1", signalqueue.KindTerminate) {
		t.Fatalf("expected delivery to a live instance to succeed")
	}

	inst.Close()

	if e.DeliverSignal("inst-1", signalqueue.KindTerminate) {
		t.Error("expected delivery to a closed instance to fail")
	}
}

func TestDeliverSignalUnknownInstance(t *testing.T) {
	e := New(config.DefaultConfig())
	if e.DeliverSignal("ghost", signalqueue.KindTerminate) {
		t.Error("expected delivery to an unknown instance to fail")
	}
}
