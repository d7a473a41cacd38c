package util

import (
	"fmt"
	"math"
)

func ArrayEpsEquals(x, y []float64, eps float64) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if !EpsEqual(x[i], y[i], eps) {
			panic(fmt.Sprintf("Unequal entries at (%d): [%v, %v]", i, x[i], y[i]))
		}
	}
	return true
}

func EpsEqual(x, y, eps float64) bool {
	return math.Abs(x-y) < eps
}
