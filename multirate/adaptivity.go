package multirate

import "math"

// Adaptivity is the per-component step-size controller. It remembers the
// last residual and the current desired step for every component, decides
// whether the last slab is acceptable, and may shorten the next sub-slab
// via Threshold.
type Adaptivity interface {
	KMax() float64
	Threshold() float64
	Residual(i int) float64
	// Timestep returns the current desired step size for component i;
	// Partition reads this to decide the head/tail split.
	Timestep(i int) float64
	Update(slab *TimeSlab, b float64, first bool)
	Accept() bool
}

// AdaptivityConfig tunes the default controller: a classical
// error-per-step update, k_new = k_old * (safety*tol/residual)^(1/(order+1)),
// clamped to [KMin, KMax], applied per component.
type AdaptivityConfig struct {
	KMax      float64
	KMin      float64
	Threshold float64
	Tolerance float64
	Order     uint
	Safety    float64
}

func DefaultAdaptivityConfig() AdaptivityConfig {
	return AdaptivityConfig{
		KMax:      1.0,
		KMin:      1e-8,
		Threshold: 0.9,
		Tolerance: 1e-3,
		Order:     2,
		Safety:    0.9,
	}
}

type defaultAdaptivity struct {
	cfg       AdaptivityConfig
	ode       ODE
	k         []float64
	r         []float64
	accepted  bool
	fixedStep bool
}

func NewAdaptivity(o ODE, cfg AdaptivityConfig, fixedStep bool) Adaptivity {
	n := int(o.Dimension())
	k := make([]float64, n)
	for i := range k {
		k[i] = cfg.KMax
	}
	return &defaultAdaptivity{
		cfg:       cfg,
		ode:       o,
		k:         k,
		r:         make([]float64, n),
		accepted:  true,
		fixedStep: fixedStep,
	}
}

func (a *defaultAdaptivity) KMax() float64        { return a.cfg.KMax }
func (a *defaultAdaptivity) Threshold() float64   { return a.cfg.Threshold }
func (a *defaultAdaptivity) Residual(i int) float64 { return a.r[i] }
func (a *defaultAdaptivity) Timestep(i int) float64 { return a.k[i] }
func (a *defaultAdaptivity) Accept() bool         { return a.accepted }

// Update recomputes a residual and, unless running with a fixed step,
// a new desired step size for every component, using the just-built
// slab's end-time dof values.
func (a *defaultAdaptivity) Update(slab *TimeSlab, b float64, first bool) {
	_ = first
	a.accepted = true

	n := len(a.k)
	uEnd := make([]float64, n)
	for j := 0; j < n; j++ {
		e := slab.elast[j]
		if e == -1 {
			uEnd[j] = slab.u0[j]
			continue
		}
		nsize := int(slab.method.NSize())
		uEnd[j] = slab.jx[e*nsize+nsize-1]
	}

	for i := 0; i < n; i++ {
		e := slab.elast[i]
		if e == -1 {
			continue
		}
		s := slab.es[e]
		a0, b0 := slab.sa[s], slab.sb[s]
		k0 := b0 - a0
		nsize := int(slab.method.NSize())
		dofs := slab.jx[e*nsize : (e+1)*nsize]
		ep := slab.ee[e]
		var x0 float64
		if ep != -1 {
			x0 = slab.jx[ep*nsize+nsize-1]
		} else {
			x0 = slab.u0[i]
		}

		f := slab.ode.F(uEnd, b0, uint(i))
		r := math.Abs(slab.method.Residual(x0, dofs, f, k0))
		a.r[i] = r

		if a.fixedStep {
			continue
		}
		if r > a.cfg.Tolerance {
			a.accepted = false
		}

		ratio := a.cfg.Safety * a.cfg.Tolerance / math.Max(r, 1e-14)
		knew := k0 * math.Pow(ratio, 1.0/float64(a.cfg.Order+1))
		if knew > a.cfg.KMax {
			knew = a.cfg.KMax
		}
		if knew < a.cfg.KMin {
			knew = a.cfg.KMin
		}
		a.k[i] = knew
	}
}
