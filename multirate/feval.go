package multirate

import "github.com/rollingthunder/differential/multirate/method"

// feval is the cross-component right-hand-side evaluator: it produces
// f[0..qsize) = ode.F(u, a0+k0*qpoint(m), i0) for element e0, reading every
// dependency's current value from whichever representation is cheapest —
// the same sub-slab's packed dofs, a cached end-dof for a smaller-step
// peer, or an on-the-fly polynomial evaluation for a larger-step peer.
func (ts *TimeSlab) feval(e0 int) []float64 {
	i0 := ts.ei[e0]
	s0 := ts.es[e0]
	a0, b0 := ts.sa[s0], ts.sb[s0]
	k0 := b0 - a0

	if ts.method.Type() == method.Continuous {
		return ts.cgFeval(s0, e0, i0, a0, b0, k0)
	}
	return ts.dgFeval(s0, e0, i0, a0, b0, k0)
}

func (ts *TimeSlab) cgFeval(s0, e0, i0 int, a0, b0, k0 float64) []float64 {
	nsize := int(ts.method.NSize())
	qsize := int(ts.method.QSize())
	last := nsize - 1
	f := make([]float64, qsize)
	deps := ts.ode.Dependencies(uint(i0))

	if a0 < ts.a+ts.eps {
		f[0] = ts.f0[i0]
	} else {
		for _, i1 := range deps {
			e1 := ts.elast[i1]
			if e1 == -1 {
				ts.u[i1] = ts.u0[i1]
				continue
			}
			s1 := ts.es[e1]
			if s1 == s0 {
				ep := ts.ee[e1]
				if ep != -1 {
					ts.u[i1] = ts.jx[ep*nsize+last]
				} else {
					ts.u[i1] = ts.u0[i1]
				}
				continue
			}
			b1 := ts.sb[s1]
			if b1 < a0+ts.eps {
				ts.u[i1] = ts.jx[e1*nsize+last]
				continue
			}
			a1 := ts.sa[s1]
			k1 := b1 - a1
			tau := (a0 - a1) / k1
			ep := ts.ee[e1]
			var x0 float64
			if ep != -1 {
				x0 = ts.jx[ep*nsize+last]
			} else {
				x0 = ts.u0[i1]
			}
			ts.u[i1] = ts.method.UEval(x0, ts.jx[e1*nsize:(e1+1)*nsize], tau)
		}
		f[0] = ts.ode.F(ts.u, a0, uint(i0))
	}

	dStart, dStop := ts.depRange(e0)
	ndep := 0
	if dStop > dStart {
		ndep = (dStop - dStart) / nsize
	}
	d := dStart

	for m := 1; m < qsize; m++ {
		t := a0 + k0*ts.method.QPoint(uint(m))

		for _, i1 := range deps {
			e1 := ts.elast[i1]
			if e1 == -1 {
				continue
			}
			s1 := ts.es[e1]
			j1 := e1 * nsize
			if s1 == s0 {
				ts.u[i1] = ts.jx[j1+m-1]
				continue
			}
			b1 := ts.sb[s1]
			if b1 < a0+ts.eps {
				continue
			}
			a1 := ts.sa[s1]
			k1 := b1 - a1
			tau := (t - a1) / k1
			ep := ts.ee[e1]
			var x0 float64
			if ep != -1 {
				x0 = ts.jx[ep*nsize+last]
			} else {
				x0 = ts.u0[i1]
			}
			ts.u[i1] = ts.method.UEval(x0, ts.jx[j1:j1+nsize], tau)
		}

		for dep := 0; dep < ndep; dep++ {
			e1 := ts.de[d]
			d++
			if e1 == -1 {
				panic("multirate: feval: unfilled dependency slot")
			}
			ep := ts.ee[e1]
			i1 := ts.ei[e1]
			var x0 float64
			if ep != -1 {
				x0 = ts.jx[ep*nsize+last]
			} else {
				x0 = ts.u0[i1]
			}
			s1 := ts.es[e1]
			a1, b1 := ts.sa[s1], ts.sb[s1]
			k1 := b1 - a1
			tau := (t - a1) / k1
			j1 := e1 * nsize
			ts.u[i1] = ts.method.UEval(x0, ts.jx[j1:j1+nsize], tau)
		}

		f[m] = ts.ode.F(ts.u, t, uint(i0))
	}

	return f
}

func (ts *TimeSlab) dgFeval(s0, e0, i0 int, a0, b0, k0 float64) []float64 {
	nsize := int(ts.method.NSize())
	qsize := int(ts.method.QSize())
	f := make([]float64, qsize)
	deps := ts.ode.Dependencies(uint(i0))

	dStart, dStop := ts.depRange(e0)
	ndep := 0
	if dStop > dStart {
		ndep = (dStop - dStart) / nsize
	}
	d := dStart

	for m := 0; m < qsize; m++ {
		t := a0 + k0*ts.method.QPoint(uint(m))

		for _, i1 := range deps {
			e1 := ts.elast[i1]
			if e1 == -1 {
				continue
			}
			s1 := ts.es[e1]
			j1 := e1 * nsize
			if s1 == s0 {
				ts.u[i1] = ts.jx[j1+m]
				continue
			}
			b1 := ts.sb[s1]
			if b1 < a0+ts.eps {
				continue
			}
			a1 := ts.sa[s1]
			k1 := b1 - a1
			tau := (t - a1) / k1
			ts.u[i1] = ts.method.UEval(0.0, ts.jx[j1:j1+nsize], tau)
		}

		for dep := 0; dep < ndep; dep++ {
			e1 := ts.de[d]
			d++
			if e1 == -1 {
				panic("multirate: feval: unfilled dependency slot")
			}
			i1 := ts.ei[e1]
			s1 := ts.es[e1]
			a1, b1 := ts.sa[s1], ts.sb[s1]
			k1 := b1 - a1
			tau := (t - a1) / k1
			j1 := e1 * nsize
			ts.u[i1] = ts.method.UEval(0.0, ts.jx[j1:j1+nsize], tau)
		}

		f[m] = ts.ode.F(ts.u, t, uint(i0))
	}

	return f
}
