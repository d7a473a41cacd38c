package multirate

import (
	"log/slog"

	"github.com/rollingthunder/differential/multirate/method"
)

// TimeSlab owns the arena arrays for one multi-adaptive time slab over
// [_a, _b]: sub-slabs, elements, packed dofs, and the dependency graph
// between elements running at different step sizes. Arrays grow
// monotonically across rebuilds and are never shrunk; build resets only
// the "next free slot" counters and the contents that matter.
type TimeSlab struct {
	ode        ODE
	method     method.Method
	partition  Partition
	adaptivity Adaptivity
	solver     Solver
	logger     *slog.Logger

	eps float64
	n   int // ode.Dimension()

	a, b float64 // _a, _b: current slab interval

	// Arena arrays, §3.
	sa, sb     []float64
	ei, es, ee []int
	ed         []int
	jx         []float64
	de         []int
	elast      []int

	u, u0, f0 []float64

	// Current used counts, reset at the top of every build.
	ns, ne, nd int
	// Next free slot per array, reset by allocData.
	sNext, eNext, dNext int

	emax int
	kmin float64
}

// NewTimeSlab constructs the core around an ODE and a configuration. It
// refuses to build a slab for an implicit ODE: the multi-adaptive core
// only supports cG(q)/dG(q) over explicit right-hand sides.
func NewTimeSlab(o ODE, cfg Config, logger *slog.Logger) (*TimeSlab, error) {
	if cfg.Implicit {
		return nil, fatalf("NewTimeSlab", "multi-adaptive core cannot solve implicit ODEs; use cG(q) or dG(q) instead")
	}
	if logger == nil {
		logger = slog.Default()
	}

	n := int(o.Dimension())
	family := method.Continuous
	if cfg.Method == DG {
		family = method.Discontinuous
	}
	order := cfg.MethodOrder
	if order == 0 {
		order = 1
	}
	m := method.New(family, order)

	eps := cfg.Epsilon
	if eps <= 0 {
		eps = DefaultEpsilon
	}

	ts := &TimeSlab{
		ode:    o,
		method: m,
		logger: logger,
		eps:    eps,
		n:      n,
		elast:  make([]int, n),
		u:      make([]float64, n),
		u0:     make([]float64, n),
	}
	for i := 0; i < n; i++ {
		ts.elast[i] = -1
		ts.u0[i] = o.InitialValue(uint(i))
	}
	if m.Type() == method.Continuous {
		ts.f0 = make([]float64, n)
	}

	acfg := cfg.Adaptivity
	if acfg.KMax <= 0 {
		acfg = DefaultAdaptivityConfig()
	}
	ts.partition = NewPartition(n)
	ts.adaptivity = NewAdaptivity(o, acfg, cfg.FixedTimeStep)

	solver, err := newSolver(cfg.NonlinearSolver, DefaultSolverConfig())
	if err != nil {
		return nil, err
	}
	ts.solver = solver

	return ts, nil
}

// Build constructs the slab over [a, b], possibly returning an end time b'
// <= b shortened by the adaptivity controller, and returns b'.
func (ts *TimeSlab) Build(a, b float64) float64 {
	ts.allocData(a, b)

	for i := range ts.elast {
		ts.elast[i] = -1
	}
	ts.kmin = ts.ode.EndTime()

	b = ts.createTimeSlab(a, b, 0)
	ts.a, ts.b = a, b

	if a < ts.eps {
		ts.ode.Update(ts.u0, a, false)
	}
	return b
}

// allocData dry-runs the recursion to size the arena, grows arrays as
// needed (never shrinking them), and resets the per-build slot counters.
func (ts *TimeSlab) allocData(a, b float64) {
	for i := range ts.u {
		ts.u[i] = a
	}
	ts.ns, ts.ne, ts.nd = 0, 0, 0
	ts.computeDataSize(a, b, 0)

	ts.sa = growFloats(ts.sa, ts.ns)
	ts.sb = growFloats(ts.sb, ts.ns)
	ts.ei = growInts(ts.ei, ts.ne)
	ts.es = growInts(ts.es, ts.ne)
	ts.ee = growInts(ts.ee, ts.ne)
	ts.ed = growInts(ts.ed, ts.ne)
	nsize := int(ts.method.NSize())
	ts.jx = growFloats(ts.jx, ts.ne*nsize)
	ts.de = growInts(ts.de, ts.nd)

	for i := 0; i < ts.nd; i++ {
		ts.de[i] = -1
	}

	ts.sNext, ts.eNext, ts.dNext = 0, 0, 0
}

func growFloats(s []float64, want int) []float64 {
	if len(s) >= want {
		return s
	}
	newLen := want
	if 2*len(s) > newLen {
		newLen = 2 * len(s)
	}
	out := make([]float64, newLen)
	copy(out, s)
	return out
}

func growInts(s []int, want int) []int {
	if len(s) >= want {
		return s
	}
	newLen := want
	if 2*len(s) > newLen {
		newLen = 2 * len(s)
	}
	out := make([]int, newLen)
	copy(out, s)
	return out
}

// computeEndTime consults Adaptivity and Partition for the step the head of
// [offset, ...) can take, shortens b to a+K when that step K is below
// threshold*(b-a), and returns the (possibly shortened) end time together
// with the partition cutoff position.
func (ts *TimeSlab) computeEndTime(a, b float64, offset int) (float64, int) {
	K := ts.adaptivity.KMax()
	if rem := b - a; rem < K {
		K = rem
	}
	end, K := ts.partition.Update(offset, ts.adaptivity, K)

	if K < ts.adaptivity.Threshold()*(b-a) {
		b = a + K
	}
	if b-a < ts.kmin {
		ts.kmin = b - a
	}
	return b, end
}

// computeDataSize mirrors createTimeSlab's recursion to size the arena
// before anything is allocated. u[] is repurposed as "latest time reached"
// scratch per component for the duration of the dry run.
func (ts *TimeSlab) computeDataSize(a, b float64, offset int) float64 {
	b, end := ts.computeEndTime(a, b, offset)

	for n := offset; n < end; n++ {
		ts.u[ts.partition.Index(n)] = b
	}

	ts.ns++
	ts.ne += end - offset
	for n := offset; n < end; n++ {
		ts.nd += ts.countDependenciesDry(ts.partition.Index(n))
	}

	t := a
	for t < b && end < ts.partition.Size() {
		t = ts.computeDataSize(t, b, end)
	}
	return b
}

// countDependenciesDry counts dependencies to components with smaller time
// steps using the dry-run scratch array u[] as a proxy for "time reached".
func (ts *TimeSlab) countDependenciesDry(i0 int) int {
	n := 0
	nsize := int(ts.method.NSize())
	for _, i1 := range ts.ode.Dependencies(uint(i0)) {
		if ts.u[i0] > ts.u[i1]+ts.eps {
			n += nsize
		}
	}
	return n
}

// countDependenciesAt is the creation-time counterpart: components whose
// latest created element has not yet reached b0 need a slot.
func (ts *TimeSlab) countDependenciesAt(i0 int, b0 float64) int {
	n := 0
	nsize := int(ts.method.NSize())
	for _, i1 := range ts.ode.Dependencies(uint(i0)) {
		e1 := ts.elast[i1]
		if e1 == -1 {
			n += nsize
			continue
		}
		if ts.sb[ts.es[e1]] < b0-ts.eps {
			n += nsize
		}
	}
	return n
}

// createTimeSlab recursively builds the real sub-slab tree, mirroring
// computeDataSize exactly.
func (ts *TimeSlab) createTimeSlab(a, b float64, offset int) float64 {
	b, end := ts.computeEndTime(a, b, offset)

	ts.createS(a, b, offset, end)

	t := a
	for t < b && end < ts.partition.Size() {
		t = ts.createTimeSlab(t, b, end)
	}
	return b
}

// createS allocates one sub-slab, creates its elements, and then assigns
// every element's ed range once all of them exist.
func (ts *TimeSlab) createS(a0, b0 float64, offset, end int) {
	pos := ts.sNext
	ts.sNext++
	ts.sa[pos] = a0
	ts.sb[pos] = b0

	for n := offset; n < end; n++ {
		ts.createE(ts.partition.Index(n), pos, a0, b0)
	}

	dNext := ts.dNext
	for n := offset; n < end; n++ {
		index := ts.partition.Index(n)
		e := ts.elast[index]
		dNext += ts.countDependenciesAt(index, b0)
		if e == 0 {
			ts.ed[e] = 0
		}
		if e < ts.ne-1 {
			ts.ed[e+1] = dNext
		}
	}
	ts.dNext = dNext
}

func (ts *TimeSlab) createE(index, subslab int, a, b float64) int {
	pos := ts.eNext
	ts.eNext++

	ts.ei[pos] = index
	ts.es[pos] = subslab
	ts.ee[pos] = ts.elast[index]

	ts.createJ(index, pos)
	ts.createD(index, pos, subslab, a, b)

	ts.elast[index] = pos
	return pos
}

func (ts *TimeSlab) createJ(index, pos int) {
	nsize := int(ts.method.NSize())
	base := pos * nsize
	for n := 0; n < nsize; n++ {
		ts.jx[base+n] = ts.u0[index]
	}
}

// createD registers e0 as a dependent of every larger-or-equal-step element
// whose range strictly contains [a0, b0] and whose nodal points land inside
// it, so that e0's current dof state can later be looked up by the larger
// element's feval.
func (ts *TimeSlab) createD(i0, e0, s0 int, a0, b0 float64) {
	nsize := int(ts.method.NSize())
	for _, i1 := range ts.ode.Transpose(uint(i0)) {
		e1 := ts.elast[i1]
		if e1 == -1 {
			continue
		}
		s1 := ts.es[e1]
		a1, b1 := ts.sa[s1], ts.sb[s1]
		if !ts.contains(a0, b0, a1, b1) || s0 == s1 {
			continue
		}
		k1 := b1 - a1
		for nd := 0; nd < nsize; nd++ {
			t := a1 + k1*ts.method.NPoint(uint(nd))
			if !ts.within(t, a0, b0) {
				continue
			}
			start, stop := ts.depRange(e1)
			found := false
			for d := start; d < stop; d++ {
				if ts.de[d] == -1 {
					ts.de[d] = e0
					found = true
					break
				}
			}
			if !found {
				panic("multirate: create_d: no free dependency slot (dry-run/creation-time count mismatch)")
			}
		}
	}
}

// depRange returns the half-open [start, stop) range of de belonging to
// element e. ed only stores one offset per element; the end of the last
// element's range is nd itself.
func (ts *TimeSlab) depRange(e int) (int, int) {
	start := ts.ed[e]
	if e < ts.ne-1 {
		return start, ts.ed[e+1]
	}
	return start, ts.nd
}

// within is the load-bearing epsilon-tolerant, left-open/right-closed
// interval predicate: a dof at exactly the left edge of [a, b] is excluded,
// one at exactly the right edge is included.
func (ts *TimeSlab) within(t, a, b float64) bool {
	return (a+ts.eps) < t && t <= (b+ts.eps)
}

// contains reports whether [a0, b0] sits inside [a1, b1], epsilon-tolerant.
func (ts *TimeSlab) contains(a0, b0, a1, b1 float64) bool {
	return a1 <= a0+ts.eps && b0-ts.eps <= b1
}

// Solve copies u0 into the scratch u, precomputes the left-endpoint RHS for
// continuous elements, and hands the dof array to the configured solver.
func (ts *TimeSlab) Solve() bool {
	copy(ts.u, ts.u0)
	if ts.method.Type() == method.Continuous {
		for i := 0; i < ts.n; i++ {
			ts.f0[i] = ts.ode.F(ts.u0, ts.a, uint(i))
		}
	}
	return ts.solver.Solve(ts)
}

// Check asks Adaptivity to recompute residuals/step sizes and reports
// whether the result is acceptable.
func (ts *TimeSlab) Check(first bool) bool {
	ts.adaptivity.Update(ts, ts.b, first)
	return ts.adaptivity.Accept()
}

// Shift advances u0 to the slab's end-time solution. It returns false,
// leaving u0 untouched, if the ODE's update hook vetoes the shift.
func (ts *TimeSlab) Shift(end bool) bool {
	ts.coverTime(ts.b)

	nsize := int(ts.method.NSize())
	for i := 0; i < ts.n; i++ {
		e := ts.elast[i]
		if e == -1 {
			panic("multirate: shift: component has no covering element at slab end")
		}
		ts.u[i] = ts.jx[e*nsize+nsize-1]
	}

	if !ts.ode.Update(ts.u, ts.b, end) {
		return false
	}
	copy(ts.u0, ts.u)
	return true
}

// Reset overwrites every element's dofs with its component's slab-initial
// value, discarding any solver progress.
func (ts *TimeSlab) Reset() {
	nsize := int(ts.method.NSize())
	for e := 0; e < ts.ne; e++ {
		i := ts.ei[e]
		base := e * nsize
		for n := 0; n < nsize; n++ {
			ts.jx[base+n] = ts.u0[i]
		}
	}
}

// Sample covers time t for every component so that USample/KSample/RSample
// can be called against it.
func (ts *TimeSlab) Sample(t float64) { ts.coverTime(t) }

// USample evaluates component i's solution polynomial at time t, using the
// element elast[i] currently covers (see Sample/coverTime).
func (ts *TimeSlab) USample(i int, t float64) float64 {
	e := ts.elast[i]
	if e == -1 {
		panic("multirate: usample: component has no covering element")
	}
	nsize := int(ts.method.NSize())
	s := ts.es[e]
	a, b := ts.sa[s], ts.sb[s]
	k := b - a

	ep := ts.ee[e]
	var x0 float64
	if ep != -1 {
		x0 = ts.jx[ep*nsize+nsize-1]
	} else {
		x0 = ts.u0[i]
	}

	tau := (t - a) / k
	return ts.method.UEval(x0, ts.jx[e*nsize:(e+1)*nsize], tau)
}

// KSample returns the step size of the element elast[i] currently covers.
func (ts *TimeSlab) KSample(i int, t float64) float64 {
	_ = t
	e := ts.elast[i]
	if e == -1 {
		panic("multirate: ksample: component has no covering element")
	}
	s := ts.es[e]
	return ts.sb[s] - ts.sa[s]
}

// RSample returns the last residual computed for component i by Adaptivity.
func (ts *TimeSlab) RSample(i int, t float64) float64 {
	_ = t
	return ts.adaptivity.Residual(i)
}

// CoverSlab advances elast for every element of subslab starting at e0,
// stopping at the first element outside it, and returns that element index.
func (ts *TimeSlab) CoverSlab(subslab, e0 int) int {
	e := e0
	for ; e < ts.ne; e++ {
		if ts.es[e] != subslab {
			break
		}
		ts.elast[ts.ei[e]] = e
	}
	return e
}

// CoverNext advances elast across a sub-slab boundary starting at element,
// returning the new current sub-slab index.
func (ts *TimeSlab) CoverNext(subslab, element int) int {
	if subslab == ts.es[element] {
		return subslab
	}
	subslab = ts.es[element]
	for e := element; e < ts.ne; e++ {
		if ts.es[e] != subslab {
			break
		}
		ts.elast[ts.ei[e]] = e
	}
	return subslab
}

// coverTime ensures elast[i] points at the element of component i whose
// sub-slab interval brackets t, for every i.
func (ts *TimeSlab) coverTime(t float64) {
	ok := true
	for i := 0; i < ts.n; i++ {
		e := ts.elast[i]
		if e == -1 {
			ts.emax = 0
			ok = false
			break
		}
		s := ts.es[e]
		a, b := ts.sa[s], ts.sb[s]
		if t < a+ts.eps {
			ts.emax = 0
			ok = false
			break
		}
		if t > b+ts.eps {
			ok = false
			break
		}
	}
	if ok {
		return
	}

	if ts.emax >= ts.ne {
		ts.emax = 0
	} else {
		s := ts.es[ts.emax]
		if t < ts.sa[s]+ts.eps {
			ts.emax = 0
		}
	}

	for e := ts.emax; e < ts.ne; e++ {
		s := ts.es[e]
		i := ts.ei[e]
		a := ts.sa[s]
		if t < a+ts.eps && ts.a < a-ts.eps {
			break
		}
		ts.elast[i] = e
		ts.emax = e
	}
}

// Disp logs a summary of the current arena sizes.
func (ts *TimeSlab) Disp() {
	ts.logger.Info("time slab",
		"a", ts.a, "b", ts.b,
		"ns", ts.ns, "ne", ts.ne, "nd", ts.nd,
		"nj", ts.ne*int(ts.method.NSize()),
		"kmin", ts.kmin,
	)
}

// Dimension returns the number of ODE components this slab was built for.
func (ts *TimeSlab) Dimension() int { return ts.n }

// EndTime returns the slab's actual end time _b from the last Build.
func (ts *TimeSlab) EndTime() float64 { return ts.b }

// StartTime returns the slab's start time _a from the last Build.
func (ts *TimeSlab) StartTime() float64 { return ts.a }

// ElementCount returns ne, the number of elements in the current arena.
func (ts *TimeSlab) ElementCount() int { return ts.ne }

// DependencyCount returns nd, the size of the de array in the current arena.
func (ts *TimeSlab) DependencyCount() int { return ts.nd }

// SubSlabCount returns ns, the number of sub-slabs in the current arena.
func (ts *TimeSlab) SubSlabCount() int { return ts.ns }
