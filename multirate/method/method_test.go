package method

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLobattoNodesIncludeEndpoints(t *testing.T) {
	for q := uint(1); q <= 5; q++ {
		m := New(Continuous, q)
		require.Equal(t, q, m.NSize())
		require.Equal(t, q+1, m.QSize())
		assert.InDelta(t, 0.0, m.QPoint(0), 1e-9)
		assert.InDelta(t, 1.0, m.QPoint(m.QSize()-1), 1e-9)
		assert.InDelta(t, 1.0, m.NPoint(m.NSize()-1), 1e-9)
	}
}

func TestRadauNodesEndAtOne(t *testing.T) {
	for q := uint(1); q <= 5; q++ {
		m := New(Discontinuous, q)
		require.Equal(t, q+1, m.NSize())
		require.Equal(t, q+1, m.QSize())
		assert.InDelta(t, 1.0, m.NPoint(m.NSize()-1), 1e-9)
		for n := uint(0); n < m.NSize(); n++ {
			assert.Greater(t, m.NPoint(n), 0.0)
		}
	}
}

func TestNodesAreStrictlyAscending(t *testing.T) {
	for q := uint(1); q <= 6; q++ {
		for _, ty := range []Type{Continuous, Discontinuous} {
			m := New(ty, q)
			var prev float64 = -1
			for n := uint(0); n < m.NSize(); n++ {
				p := m.NPoint(n)
				assert.Greater(t, p, prev, "type=%v q=%d n=%d", ty, q, n)
				prev = p
			}
		}
	}
}

func TestCGUEvalReproducesLinear(t *testing.T) {
	m := New(Continuous, 2)
	x0 := 1.0
	dofs := make([]float64, m.NSize())
	for n := uint(0); n < m.NSize(); n++ {
		dofs[n] = x0 + 2.0*m.NPoint(n)
	}
	for _, tau := range []float64{0.0, 0.25, 0.5, 0.75, 1.0} {
		got := m.UEval(x0, dofs, tau)
		assert.InDelta(t, x0+2.0*tau, got, 1e-8)
	}
}

func TestDGUEvalReproducesLinear(t *testing.T) {
	m := New(Discontinuous, 2)
	dofs := make([]float64, m.NSize())
	for n := uint(0); n < m.NSize(); n++ {
		dofs[n] = 3.0 + 5.0*m.NPoint(n)
	}
	for _, tau := range []float64{0.1, 0.5, 0.9} {
		got := m.UEval(0, dofs, tau)
		assert.InDelta(t, 3.0+5.0*tau, got, 1e-8)
	}
}

func TestResidualVanishesForExactLinearSolution(t *testing.T) {
	// u(tau) = x0 + f*tau solves du/dt = f exactly on an element of
	// length k, so the residual estimator should read back ~0.
	const k = 0.1
	const f = 2.0
	x0 := 1.0
	for _, ty := range []Type{Continuous, Discontinuous} {
		m := New(ty, 3)
		dofs := make([]float64, m.NSize())
		for n := uint(0); n < m.NSize(); n++ {
			tau := m.NPoint(n)
			dofs[n] = x0 + f*k*tau
		}
		r := m.Residual(x0, dofs, f, k)
		assert.InDelta(t, 0.0, r, 1e-4, "type=%v", ty)
	}
}
