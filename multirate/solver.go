package multirate

import (
	"github.com/rollingthunder/differential/multirate/method"
)

// Solver iterates a TimeSlab's packed dof array to a fixed point, calling
// back into feval once per element per sweep.
type Solver interface {
	Solve(ts *TimeSlab) bool
}

type SolverConfig struct {
	MaxIterations int
	Tolerance     float64
}

func DefaultSolverConfig() SolverConfig {
	return SolverConfig{MaxIterations: 100, Tolerance: 1e-10}
}

func newSolver(kind SolverKind, cfg SolverConfig) (Solver, error) {
	switch kind {
	case DefaultSolver, FixedPointSolver:
		return &fixedPointSolver{cfg: cfg}, nil
	case NewtonSolver:
		return &newtonSolver{cfg: cfg}, nil
	default:
		return nil, fatalf("newSolver", "unknown nonlinear solver kind %d", kind)
	}
}

// quadratureUpdate integrates f against the method's own quadrature
// abscissas with a composite left-rectangle rule (the interval
// [qpoint(m-1), qpoint(m)] is weighted by f[m-1], with qpoint(-1):=0 and
// f[0] standing in for the leading interval) and returns the resulting
// nodal dof values anchored at x0. For cG, qpoint(0)=0, so the leading
// interval has zero width and the left dof is x0 itself rather than an
// explicit unknown.
func quadratureUpdate(m method.Method, f []float64, x0, k float64, isCG bool) []float64 {
	qsize := int(m.QSize())
	nsize := int(m.NSize())
	out := make([]float64, nsize)

	prev := 0.0
	acc := 0.0
	fl := f[0]
	n := 0
	for idx := 0; idx < qsize; idx++ {
		q := m.QPoint(uint(idx))
		acc += (q - prev) * fl
		prev = q
		fl = f[idx]
		if isCG && idx == 0 {
			continue
		}
		out[n] = x0 + k*acc
		n++
	}
	return out
}

// fixedPointSolver is Picard iteration: sweep every element, recompute its
// dofs from its own current feval, repeat until the largest dof change
// drops below tolerance (true) or the iteration budget runs out (false).
type fixedPointSolver struct {
	cfg SolverConfig
}

func (fp *fixedPointSolver) Solve(ts *TimeSlab) bool {
	nsize := int(ts.method.NSize())
	isCG := ts.method.Type() == method.Continuous

	for iter := 0; iter < fp.cfg.MaxIterations; iter++ {
		maxChange := 0.0
		for e := 0; e < ts.ne; e++ {
			i := ts.ei[e]
			s := ts.es[e]
			k := ts.sb[s] - ts.sa[s]
			ep := ts.ee[e]
			var x0 float64
			if ep != -1 {
				x0 = ts.jx[ep*nsize+nsize-1]
			} else {
				x0 = ts.u0[i]
			}

			f := ts.feval(e)
			newDofs := quadratureUpdate(ts.method, f, x0, k, isCG)

			base := e * nsize
			for n := 0; n < nsize; n++ {
				diff := newDofs[n] - ts.jx[base+n]
				if diff < 0 {
					diff = -diff
				}
				if diff > maxChange {
					maxChange = diff
				}
				ts.jx[base+n] = newDofs[n]
			}
		}
		if maxChange < fp.cfg.Tolerance {
			return true
		}
	}
	return false
}

// newtonSolver runs the same Picard sweep for the interior dofs, plus one
// diagonal Newton correction per element on the last (end-time) dof, using
// a finite-difference derivative of the local residual
// g(last) = quadratureUpdate(...)[last] - last.
type newtonSolver struct {
	cfg SolverConfig
}

func (nw *newtonSolver) Solve(ts *TimeSlab) bool {
	nsize := int(ts.method.NSize())
	isCG := ts.method.Type() == method.Continuous
	last := nsize - 1
	const h = 1e-6

	for iter := 0; iter < nw.cfg.MaxIterations; iter++ {
		maxChange := 0.0
		for e := 0; e < ts.ne; e++ {
			i := ts.ei[e]
			s := ts.es[e]
			k := ts.sb[s] - ts.sa[s]
			ep := ts.ee[e]
			var x0 float64
			if ep != -1 {
				x0 = ts.jx[ep*nsize+nsize-1]
			} else {
				x0 = ts.u0[i]
			}
			base := e * nsize

			f0 := ts.feval(e)
			dofs0 := quadratureUpdate(ts.method, f0, x0, k, isCG)
			g0 := dofs0[last] - ts.jx[base+last]

			saved := ts.jx[base+last]
			ts.jx[base+last] = saved + h
			f1 := ts.feval(e)
			dofs1 := quadratureUpdate(ts.method, f1, x0, k, isCG)
			g1 := dofs1[last] - (saved + h)
			ts.jx[base+last] = saved

			deriv := (g1 - g0) / h
			if deriv == 0 {
				deriv = -1
			}
			newLast := saved - g0/deriv

			for n := 0; n < nsize; n++ {
				v := dofs0[n]
				if n == last {
					v = newLast
				}
				diff := v - ts.jx[base+n]
				if diff < 0 {
					diff = -diff
				}
				if diff > maxChange {
					maxChange = diff
				}
				ts.jx[base+n] = v
			}
		}
		if maxChange < nw.cfg.Tolerance {
			return true
		}
	}
	return false
}
