package multirate

import "testing"

// stubAdaptivity exposes a fixed per-component timestep so Partition tests
// don't need a real TimeSlab.
type stubAdaptivity struct {
	steps []float64
}

func (s *stubAdaptivity) KMax() float64                         { return 1.0 }
func (s *stubAdaptivity) Threshold() float64                    { return 0.9 }
func (s *stubAdaptivity) Residual(i int) float64                { return 0 }
func (s *stubAdaptivity) Timestep(i int) float64                { return s.steps[i] }
func (s *stubAdaptivity) Update(ts *TimeSlab, b float64, f bool) {}
func (s *stubAdaptivity) Accept() bool                           { return true }

func TestPartitionSplitsHeadAndTail(t *testing.T) {
	a := &stubAdaptivity{steps: []float64{1.0, 0.01, 1.0, 0.01}}
	p := NewPartition(4)

	end, Kp := p.Update(0, a, 0.5)

	if end != 2 {
		t.Fatalf("end = %d, want 2 (components 0 and 2 tolerate K=0.5)", end)
	}
	if Kp != 0.5 {
		t.Fatalf("Kp = %v, want 0.5", Kp)
	}
	for n := 0; n < end; n++ {
		if a.Timestep(p.Index(n)) < 0.5 {
			t.Fatalf("head component %d has step %v < K", p.Index(n), a.Timestep(p.Index(n)))
		}
	}
}

func TestPartitionGuaranteesProgressWhenNoneTolerate(t *testing.T) {
	a := &stubAdaptivity{steps: []float64{0.1, 0.2, 0.05}}
	p := NewPartition(3)

	end, Kp := p.Update(0, a, 1.0)

	if end != 1 {
		t.Fatalf("end = %d, want 1 (progress must always be made)", end)
	}
	if Kp != 0.2 {
		t.Fatalf("Kp = %v, want 0.2 (the best available step)", Kp)
	}
	if p.Index(0) != 1 {
		t.Fatalf("Index(0) = %d, want 1 (component with the largest tolerable step)", p.Index(0))
	}
}

func TestPartitionHandlesNonZeroOffset(t *testing.T) {
	// Component 0 is pinned at the front (simulating an already-split-off
	// head from a previous call); Update must only touch index[offset:].
	a := &stubAdaptivity{steps: []float64{0.01, 1.0, 1.0, 0.01}}
	p := NewPartition(4).(*defaultPartition)
	p.index = []int{0, 1, 2, 3}

	end, Kp := p.Update(1, a, 0.5)

	if p.index[0] != 0 {
		t.Fatalf("index[0] = %d, want untouched 0", p.index[0])
	}
	if end != 3 {
		t.Fatalf("end = %d, want 3 (components 1 and 2 tolerate K=0.5)", end)
	}
	if Kp != 0.5 {
		t.Fatalf("Kp = %v, want 0.5", Kp)
	}
}

func TestPartitionSizeAndIndex(t *testing.T) {
	p := NewPartition(5)
	if p.Size() != 5 {
		t.Fatalf("Size() = %d, want 5", p.Size())
	}
	seen := make(map[int]bool)
	for n := 0; n < p.Size(); n++ {
		seen[p.Index(n)] = true
	}
	if len(seen) != 5 {
		t.Fatalf("Index is not a permutation of [0,5): saw %d distinct values", len(seen))
	}
}
