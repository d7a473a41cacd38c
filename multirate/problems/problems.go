// Package problems supplies ready-made multirate.ODE instances for tests
// and the command-line driver: a few small, hand-checkable systems plus a
// denser many-body stress case grounded on the teacher's N-body RHS.
package problems

import "math"

// Decay is the single-component scenario f(u,t,0) = -u, u0=1. Its exact
// solution is u(t) = e^-t.
type Decay struct {
	end float64
}

func NewDecay(end float64) *Decay { return &Decay{end: end} }

func (d *Decay) Dimension() uint            { return 1 }
func (d *Decay) EndTime() float64           { return d.end }
func (d *Decay) InitialValue(i uint) float64 { return 1.0 }
func (d *Decay) F(u []float64, t float64, i uint) float64 { return -u[0] }
func (d *Decay) Dependencies(i uint) []uint { return []uint{0} }
func (d *Decay) Transpose(i uint) []uint    { return []uint{0} }
func (d *Decay) Update(u []float64, t float64, end bool) bool { return true }

// Oscillator is the two-component harmonic pair f = [u1, -u0], u0 = [1, 0],
// exact solution [cos t, -sin t]. Both components share the same step size
// throughout, exercising the same-sub-slab peer lookup path in feval.
type Oscillator struct {
	end float64
}

func NewOscillator(end float64) *Oscillator { return &Oscillator{end: end} }

func (o *Oscillator) Dimension() uint  { return 2 }
func (o *Oscillator) EndTime() float64 { return o.end }
func (o *Oscillator) InitialValue(i uint) float64 {
	if i == 0 {
		return 1.0
	}
	return 0.0
}
func (o *Oscillator) F(u []float64, t float64, i uint) float64 {
	if i == 0 {
		return u[1]
	}
	return -u[0]
}
func (o *Oscillator) Dependencies(i uint) []uint {
	if i == 0 {
		return []uint{1}
	}
	return []uint{0}
}
func (o *Oscillator) Transpose(i uint) []uint { return []uint{1 - i} }
func (o *Oscillator) Update(u []float64, t float64, end bool) bool { return true }

// StiffPair is f = [u1, -stiffness*u0], u0 = [1, 0]: component 1's
// right-hand side is scaled by a large constant, which drives component 0's
// desired step size far below component 1's once a slab has been checked,
// forcing the partition to split them into separate sub-slabs.
type StiffPair struct {
	end        float64
	stiffness  float64
}

func NewStiffPair(end, stiffness float64) *StiffPair {
	return &StiffPair{end: end, stiffness: stiffness}
}

func (s *StiffPair) Dimension() uint  { return 2 }
func (s *StiffPair) EndTime() float64 { return s.end }
func (s *StiffPair) InitialValue(i uint) float64 {
	if i == 0 {
		return 1.0
	}
	return 0.0
}
func (s *StiffPair) F(u []float64, t float64, i uint) float64 {
	if i == 0 {
		return u[1]
	}
	return -s.stiffness * u[0]
}
func (s *StiffPair) Dependencies(i uint) []uint {
	if i == 0 {
		return []uint{1}
	}
	return []uint{0}
}
func (s *StiffPair) Transpose(i uint) []uint { return []uint{1 - i} }
func (s *StiffPair) Update(u []float64, t float64, end bool) bool { return true }

// NBody is a dense gravity-like many-body system in one spatial dimension:
// component 2*i is body i's position, component 2*i+1 its velocity.
// Every velocity depends on every position (dense coupling, the same
// all-pairs pattern as the teacher's problems.NewMBody), which stresses the
// dependency arena with a large de/ed footprint.
type NBody struct {
	mass []float64
	end  float64
}

const nbodyEps = 1e-4

func NewNBody(n uint, end float64) *NBody {
	mass := make([]float64, n)
	rf1 := 4 * math.Pi / 8
	for i := range mass {
		ip := float64(i + 1)
		mass[i] = (0.3 + 0.1*(math.Cos(ip*rf1)+1.0)) / float64(n)
	}
	return &NBody{mass: mass, end: end}
}

func (b *NBody) Dimension() uint  { return uint(2 * len(b.mass)) }
func (b *NBody) EndTime() float64 { return b.end }

func (b *NBody) InitialValue(i uint) float64 {
	n := len(b.mass)
	body := int(i) / 2
	rf2 := 2 * math.Pi / float64(n)
	ip1 := float64(body + 1)
	rad := 1.2 + math.Cos(ip1*0.75)
	if int(i)%2 == 0 {
		return rad * math.Cos(ip1*rf2)
	}
	v := 0.22 * math.Sqrt(rad)
	return -v * math.Sin(ip1*rf2)
}

func (b *NBody) F(u []float64, t float64, i uint) float64 {
	body := int(i) / 2
	if int(i)%2 == 0 {
		// position' = velocity
		return u[2*body+1]
	}
	// velocity' = sum of pairwise attraction toward every other body
	var acc float64
	xi := u[2*body]
	for j := range b.mass {
		if j == body {
			continue
		}
		dx := u[2*j] - xi
		dist := nbodyEps + dx*dx
		dist = b.mass[j] / (dist * math.Sqrt(dist))
		acc += dx * dist
	}
	return acc
}

func (b *NBody) Dependencies(i uint) []uint {
	body := int(i) / 2
	if int(i)%2 == 0 {
		return []uint{uint(2*body + 1)}
	}
	deps := make([]uint, 0, len(b.mass))
	for j := range b.mass {
		deps = append(deps, uint(2*j))
	}
	return deps
}

func (b *NBody) Transpose(i uint) []uint {
	n := len(b.mass)
	body := int(i) / 2
	if int(i)%2 == 0 {
		// position i feeds every velocity's right-hand side, its own included.
		deps := make([]uint, 0, n)
		for j := 0; j < n; j++ {
			deps = append(deps, uint(2*j+1))
		}
		return deps
	}
	// velocity i is only read by position i's own right-hand side.
	return []uint{uint(2 * body)}
}

func (b *NBody) Update(u []float64, t float64, end bool) bool { return true }
