// Package method implements the local polynomial basis used inside a single
// multi-adaptive element: continuous Galerkin cG(q) and discontinuous
// Galerkin dG(q), each parameterised by its order q.
//
// A Method never sees global time or global state — it only knows the
// reference interval [0, 1] and a flat slice of degree-of-freedom values.
// Everything time-slab specific (mapping [0, 1] to [a, b], choosing which
// dof array belongs to which element) lives one layer up.
package method

import "math"

// Type distinguishes the two element families.
type Type int

const (
	// Continuous is cG(q): the value at the left endpoint of the element
	// is inherited from the previous element (passed in as x0) rather
	// than stored as a dof.
	Continuous Type = iota
	// Discontinuous is dG(q): every nodal value, including the one at
	// tau=1, is an explicit dof; x0 is not interpolated through.
	Discontinuous
)

func (t Type) String() string {
	if t == Continuous {
		return "cG"
	}
	return "dG"
}

// Method is the opaque finite-element contract a TimeSlab builds elements
// against. nsize is the number of dofs an element of this method carries;
// qsize is the number of quadrature/residual evaluation points.
type Method interface {
	Type() Type
	Order() uint
	NSize() uint
	QSize() uint
	// QPoint returns the m'th quadrature point in [0, 1], m in [0, QSize()).
	QPoint(m uint) float64
	// NPoint returns the n'th nodal point in [0, 1], n in [0, NSize()).
	NPoint(n uint) float64
	// UEval evaluates the element's solution polynomial at tau in [0, 1].
	// x0 is the value carried over from the previous element; dG ignores
	// it (callers pass 0).
	UEval(x0 float64, dofs []float64, tau float64) float64
	// Residual estimates the pointwise ODE residual du/dt - f at the
	// right endpoint of the element, given the local step size k and
	// the already-evaluated right-hand side f there.
	Residual(x0 float64, dofs []float64, f float64, k float64) float64
}

// cg implements cG(q): q dofs at the non-zero Lobatto points, q+1
// quadrature points at all Lobatto points including tau=0.
type cg struct {
	q       uint
	npoints []float64 // length q, in (0, 1]
	qpoints []float64 // length q+1, in [0, 1], qpoints[0] == 0
}

// dg implements dG(q): q+1 dofs and q+1 quadrature points, both at the
// right-biased Radau points in (0, 1].
type dg struct {
	q      uint
	points []float64 // length q+1, in (0, 1]
}

// New constructs the method for the given family and order q >= 1.
func New(t Type, q uint) Method {
	if q < 1 {
		q = 1
	}
	switch t {
	case Discontinuous:
		return &dg{q: q, points: toUnitInterval(radauNodes(int(q)))}
	default:
		lob := toUnitInterval(lobattoNodes(int(q)))
		return &cg{q: q, npoints: lob[1:], qpoints: lob}
	}
}

func (c *cg) Type() Type   { return Continuous }
func (c *cg) Order() uint  { return c.q }
func (c *cg) NSize() uint  { return c.q }
func (c *cg) QSize() uint  { return c.q + 1 }
func (c *cg) NPoint(n uint) float64 { return c.npoints[n] }
func (c *cg) QPoint(m uint) float64 { return c.qpoints[m] }

func (c *cg) UEval(x0 float64, dofs []float64, tau float64) float64 {
	nodes := make([]float64, c.q+1)
	values := make([]float64, c.q+1)
	nodes[0], values[0] = 0, x0
	copy(nodes[1:], c.npoints)
	copy(values[1:], dofs[:c.q])
	return lagrangeEval(nodes, values, tau)
}

func (c *cg) Residual(x0 float64, dofs []float64, f float64, k float64) float64 {
	nodes := make([]float64, c.q+1)
	values := make([]float64, c.q+1)
	nodes[0], values[0] = 0, x0
	copy(nodes[1:], c.npoints)
	copy(values[1:], dofs[:c.q])
	deriv := lagrangeDeriv(nodes, values, 1.0)
	return deriv/k - f
}

func (d *dg) Type() Type   { return Discontinuous }
func (d *dg) Order() uint  { return d.q }
func (d *dg) NSize() uint  { return d.q + 1 }
func (d *dg) QSize() uint  { return d.q + 1 }
func (d *dg) NPoint(n uint) float64 { return d.points[n] }
func (d *dg) QPoint(m uint) float64 { return d.points[m] }

func (d *dg) UEval(x0 float64, dofs []float64, tau float64) float64 {
	return lagrangeEval(d.points, dofs[:d.q+1], tau)
}

func (d *dg) Residual(x0 float64, dofs []float64, f float64, k float64) float64 {
	deriv := lagrangeDeriv(d.points, dofs[:d.q+1], 1.0)
	return deriv/k - f
}

// lagrangeEval evaluates the Lagrange interpolant through (nodes[i],
// values[i]) at tau.
func lagrangeEval(nodes, values []float64, tau float64) float64 {
	var sum float64
	for i := range nodes {
		term := values[i]
		for j := range nodes {
			if j == i {
				continue
			}
			term *= (tau - nodes[j]) / (nodes[i] - nodes[j])
		}
		sum += term
	}
	return sum
}

// lagrangeDeriv differentiates the same interpolant via the product rule.
// tau is nudged off any coincident node to avoid a 0/0 term; this is a
// practical estimator, not an exact derivative at a node.
func lagrangeDeriv(nodes, values []float64, tau float64) float64 {
	const nudge = 1e-7
	for _, t := range nodes {
		if math.Abs(tau-t) < nudge {
			tau += nudge
		}
	}
	var sum float64
	for i := range nodes {
		var termDeriv float64
		for k := range nodes {
			if k == i {
				continue
			}
			factor := 1.0 / (tau - nodes[k])
			prod := 1.0
			for j := range nodes {
				if j == i || j == k {
					continue
				}
				prod *= (tau - nodes[j]) / (nodes[i] - nodes[j])
			}
			prod *= (tau - nodes[k]) / (nodes[i] - nodes[k])
			termDeriv += factor * prod
		}
		sum += values[i] * termDeriv
	}
	return sum
}
