package multirate

import (
	"testing"

	"github.com/rollingthunder/differential/multirate/problems"
	"github.com/rollingthunder/differential/util"
)

func buildAndSolve(t *testing.T, ode ODE, cfg Config, a, b float64) *TimeSlab {
	t.Helper()
	ts, err := NewTimeSlab(ode, cfg, nil)
	if err != nil {
		t.Fatalf("NewTimeSlab: %v", err)
	}
	bEnd := ts.Build(a, b)
	if bEnd <= a {
		t.Fatalf("Build returned non-advancing end time %v (start %v)", bEnd, a)
	}
	if !ts.Solve() {
		t.Fatalf("Solve did not converge")
	}
	return ts
}

// Every element belongs to a component in range and, if it has a
// predecessor, that predecessor is an earlier element of the same
// component with a strictly smaller index.
func TestElementArenaInvariants(t *testing.T) {
	ode := problems.NewStiffPair(1.0, 50.0)
	ts := buildAndSolve(t, ode, DefaultConfig(), 0, 1.0)

	for e := 0; e < ts.ne; e++ {
		i := ts.ei[e]
		if i < 0 || i >= ts.n {
			t.Fatalf("element %d has out-of-range component %d", e, i)
		}
		ep := ts.ee[e]
		if ep != -1 {
			if ep >= e {
				t.Fatalf("element %d predecessor %d is not earlier", e, ep)
			}
			if ts.ei[ep] != i {
				t.Fatalf("element %d predecessor %d belongs to a different component", e, ep)
			}
		}
	}
}

// Every component has exactly one "last" element once the slab is built,
// and its dependency slots are fully filled (no -1 left over).
func TestDependencySlotsAreFullyResolved(t *testing.T) {
	ode := problems.NewNBody(3, 1.0)
	ts := buildAndSolve(t, ode, DefaultConfig(), 0, 1.0)

	for i := 0; i < ts.n; i++ {
		if ts.elast[i] == -1 {
			t.Fatalf("component %d has no element after build", i)
		}
	}
	for d := 0; d < ts.nd; d++ {
		if ts.de[d] == -1 {
			t.Fatalf("dependency slot %d was never filled", d)
		}
	}
}

// The dry-run size computation and the creation-time pass must agree on
// how many dependency slots a build needs.
func TestDryRunSizeMatchesCreationTimeSize(t *testing.T) {
	ode := problems.NewStiffPair(1.0, 200.0)
	ts, err := NewTimeSlab(ode, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewTimeSlab: %v", err)
	}

	for i := range ts.u {
		ts.u[i] = 0
	}
	ts.ns, ts.ne, ts.nd = 0, 0, 0
	ts.computeDataSize(0, 1.0, 0)
	dryNd := ts.nd
	dryNe := ts.ne

	ts.Build(0, 1.0)
	if ts.nd != dryNd {
		t.Fatalf("creation-time nd = %d, dry-run nd = %d", ts.nd, dryNd)
	}
	if ts.ne != dryNe {
		t.Fatalf("creation-time ne = %d, dry-run ne = %d", ts.ne, dryNe)
	}
}

// Rebuilding the same interval from the same initial values produces the
// same arena sizes (the build is a pure function of u0 and [a,b]).
func TestBuildIsIdempotentGivenSameState(t *testing.T) {
	ode := problems.NewOscillator(1.0)
	ts, err := NewTimeSlab(ode, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewTimeSlab: %v", err)
	}

	ts.Build(0, 0.5)
	ne1, nd1, ns1 := ts.ne, ts.nd, ts.ns

	ts.Build(0, 0.5)
	ne2, nd2, ns2 := ts.ne, ts.nd, ts.ns

	if ne1 != ne2 || nd1 != nd2 || ns1 != ns2 {
		t.Fatalf("rebuild produced different arena shape: (%d,%d,%d) vs (%d,%d,%d)", ne1, nd1, ns1, ne2, nd2, ns2)
	}
}

// Sampling at the exact end of a just-built slab must agree with the
// value Shift will commit to u0.
func TestSampleAtEndMatchesShift(t *testing.T) {
	ode := problems.NewDecay(1.0)
	ts := buildAndSolve(t, ode, DefaultConfig(), 0, 0.25)

	sampled := ts.USample(0, ts.b)

	if !ts.Shift(false) {
		t.Fatalf("Shift rejected")
	}
	if !util.EpsEqual(ts.u0[0], sampled, 1e-9) {
		t.Fatalf("u0 after shift = %v, sample at b = %v", ts.u0[0], sampled)
	}
}

// An ODE.Update that vetoes the shift must leave u0 untouched and report
// failure, per the Shift contract.
func TestShiftVetoLeavesStateUnchanged(t *testing.T) {
	ode := &vetoingDecay{Decay: problems.NewDecay(1.0)}
	ts := buildAndSolve(t, ode, DefaultConfig(), 0, 0.25)

	u0Before := append([]float64(nil), ts.u0...)
	if ts.Shift(false) {
		t.Fatalf("Shift should have been vetoed")
	}
	for i := range u0Before {
		if ts.u0[i] != u0Before[i] {
			t.Fatalf("u0[%d] changed despite vetoed shift: %v -> %v", i, u0Before[i], ts.u0[i])
		}
	}
}

type vetoingDecay struct {
	*problems.Decay
}

func (v *vetoingDecay) Update(u []float64, t float64, end bool) bool { return false }

// An Adaptivity KMax below threshold*(b-a) makes Build shorten the slab
// below the requested end time.
func TestAdaptivityShortensOverlyAmbitiousSlab(t *testing.T) {
	ode := problems.NewStiffPair(10.0, 400.0)
	cfg := DefaultConfig()
	cfg.Adaptivity = DefaultAdaptivityConfig()
	cfg.Adaptivity.KMax = 5.0
	cfg.Adaptivity.Tolerance = 1e-6

	ts, err := NewTimeSlab(ode, cfg, nil)
	if err != nil {
		t.Fatalf("NewTimeSlab: %v", err)
	}
	bEnd := ts.Build(0, 10.0)
	if bEnd >= 10.0-ts.eps {
		t.Fatalf("Build did not shorten an overly ambitious slab: got b=%v", bEnd)
	}
}
