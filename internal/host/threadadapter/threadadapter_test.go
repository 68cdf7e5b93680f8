package threadadapter

import (
	"testing"

	"github.com/dotindustries/warpgrid-sub001/internal/shimerr"
)

func TestDeclareThreadingModel(t *testing.T) {
	a := New(ModelParallelRequired)

	if _, declared := a.Declared(); declared {
		t.Fatalf("expected no declaration before DeclareThreadingModel")
	}

	if err := a.DeclareThreadingModel(ModelCooperative); err != nil {
		t.Fatalf("first declaration: %v", err)
	}

	model, declared := a.Declared()
	if !declared {
		t.Fatalf("expected declared=true after DeclareThreadingModel")
	}
	if model != ModelCooperative {
		t.Errorf("expected ModelCooperative, got %v", model)
	}
}

func TestDeclareThreadingModelTwiceFails(t *testing.T) {
	a := New(ModelParallelRequired)

	if err := a.DeclareThreadingModel(ModelParallelRequired); err != nil {
		t.Fatalf("first declaration: %v", err)
	}

	err := a.DeclareThreadingModel(ModelCooperative)
	if err != shimerr.ErrAlreadyDeclared {
		t.Fatalf("expected ErrAlreadyDeclared, got %v", err)
	}

	// The first declaration must still stand.
	model, declared := a.Declared()
	if !declared || model != ModelParallelRequired {
		t.Errorf("expected first declaration to stick, got model=%v declared=%v", model, declared)
	}
}

func TestEffectiveModelFallsBackToConfiguredDefault(t *testing.T) {
	a := New(ModelCooperative)

	if got := a.EffectiveModel(); got != ModelCooperative {
		t.Errorf("expected the configured default before any declaration, got %v", got)
	}

	if err := a.DeclareThreadingModel(ModelParallelRequired); err != nil {
		t.Fatalf("declare: %v", err)
	}

	if got := a.EffectiveModel(); got != ModelParallelRequired {
		t.Errorf("expected the guest's declaration to override the default, got %v", got)
	}
}
