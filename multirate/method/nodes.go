package method

import "math"

// legendreValue evaluates the degree-n Legendre polynomial at x using the
// standard three-term recurrence, returning P_n(x) and P_{n-1}(x) together
// since both are needed by the node generators below.
func legendreValue(n int, x float64) (pn, pnm1 float64) {
	pnm1, pn = 1.0, x
	if n == 0 {
		return 1.0, 0.0
	}
	for k := 2; k <= n; k++ {
		pnm2 := pnm1
		pnm1 = pn
		pn = ((2*float64(k)-1)*x*pnm1 - (float64(k)-1)*pnm2) / float64(k)
	}
	return
}

// lobattoNodes returns the n+1 Legendre-Gauss-Lobatto nodes on [-1, 1] in
// ascending order, i.e. -1, the n-1 interior roots of P_n', and 1. Uses the
// classical fixed-point iteration on the degree-n Legendre polynomial
// (Trefethen-style lglnodes), which needs only P_n and P_{n-1}, no
// derivatives.
func lobattoNodes(n int) []float64 {
	x := make([]float64, n+1)
	if n == 0 {
		return []float64{-1}
	}
	for k := 0; k <= n; k++ {
		x[k] = -math.Cos(math.Pi * float64(k) / float64(n))
	}
	for iter := 0; iter < 100; iter++ {
		maxDelta := 0.0
		for k := 1; k < n; k++ {
			pn, pnm1 := legendreValue(n, x[k])
			delta := (x[k]*pn - pnm1) / (float64(n+1) * pn)
			x[k] -= delta
			if math.Abs(delta) > maxDelta {
				maxDelta = math.Abs(delta)
			}
		}
		if maxDelta < 1e-14 {
			break
		}
	}
	x[0], x[n] = -1, 1
	return x
}

// radauNodes returns n+1 Legendre-Gauss-Radau nodes on (-1, 1] in ascending
// order with the last node pinned at +1 (a "right" Radau rule, the one
// discontinuous Galerkin elements want: biased towards the end of the
// interval rather than its start). Computed by negating the classical
// left-Radau rule (which pins its first node at -1): the n roots other than
// -1 of P_{n+1}(x) + P_n(x) = 0 are found by Newton's method with a
// finite-difference derivative, seeded from the standard Chebyshev-Radau
// initial guess.
func radauNodes(n int) []float64 {
	if n == 0 {
		return []float64{1}
	}
	g := func(x float64) float64 {
		pn1, pn := legendreValue(n+1, x)
		return pn1 + pn
	}
	left := make([]float64, n+1)
	left[0] = -1
	for k := 1; k <= n; k++ {
		guess := -math.Cos(2 * math.Pi * float64(k) / (2*float64(n) + 1))
		x := guess
		for iter := 0; iter < 100; iter++ {
			const h = 1e-7
			fx := g(x)
			dfx := (g(x+h) - g(x-h)) / (2 * h)
			if dfx == 0 {
				break
			}
			delta := fx / dfx
			x -= delta
			if math.Abs(delta) < 1e-14 {
				break
			}
		}
		left[k] = x
	}
	right := make([]float64, n+1)
	for k := range left {
		right[n-k] = -left[k]
	}
	return right
}

// toUnitInterval maps ascending nodes on [-1, 1] to [0, 1].
func toUnitInterval(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = 0.5 * (v + 1.0)
	}
	return out
}
