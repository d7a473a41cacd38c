package multirate

import (
	"testing"

	"github.com/rollingthunder/differential/multirate/problems"
)

func TestAdaptivityShrinksStepWhenResidualExceedsTolerance(t *testing.T) {
	ode := problems.NewDecay(1.0)
	cfg := DefaultAdaptivityConfig()
	a := NewAdaptivity(ode, cfg, false)

	before := a.Timestep(0)

	ts, err := NewTimeSlab(ode, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewTimeSlab: %v", err)
	}
	b := ts.Build(0, 1.0)
	if !ts.Solve() {
		t.Fatalf("Solve did not converge")
	}

	a.Update(ts, b, true)

	if a.Timestep(0) >= before {
		t.Fatalf("Update did not shrink the step size: %v -> %v", before, a.Timestep(0))
	}
	if a.Residual(0) < 0 {
		t.Fatalf("Residual(0) = %v, want non-negative", a.Residual(0))
	}
}

func TestAdaptivityFixedStepNeverChangesTimestep(t *testing.T) {
	ode := problems.NewDecay(1.0)
	cfg := DefaultAdaptivityConfig()
	a := NewAdaptivity(ode, cfg, true)

	ts, err := NewTimeSlab(ode, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewTimeSlab: %v", err)
	}
	b := ts.Build(0, 1.0)
	if !ts.Solve() {
		t.Fatalf("Solve did not converge")
	}

	before := a.Timestep(0)
	a.Update(ts, b, true)
	if a.Timestep(0) != before {
		t.Fatalf("fixed-step Adaptivity changed Timestep: %v -> %v", before, a.Timestep(0))
	}
	if !a.Accept() {
		t.Fatalf("fixed-step Adaptivity should always Accept")
	}
}

func TestAdaptivityClampsToConfiguredBounds(t *testing.T) {
	ode := problems.NewDecay(1.0)
	cfg := DefaultAdaptivityConfig()
	cfg.KMin = 0.2
	cfg.KMax = 0.3
	a := NewAdaptivity(ode, cfg, false)

	ts, err := NewTimeSlab(ode, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewTimeSlab: %v", err)
	}
	b := ts.Build(0, 0.3)
	if !ts.Solve() {
		t.Fatalf("Solve did not converge")
	}
	a.Update(ts, b, true)

	if a.Timestep(0) < cfg.KMin || a.Timestep(0) > cfg.KMax {
		t.Fatalf("Timestep(0) = %v, want within [%v, %v]", a.Timestep(0), cfg.KMin, cfg.KMax)
	}
}
