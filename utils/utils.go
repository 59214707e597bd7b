package utils

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// AllFinite reports whether every element of xs is finite.
func AllFinite(xs []float64) bool {
	for _, x := range xs {
		if !IsFinite(x) {
			return false
		}
	}
	return true
}

// MatrixAllFinite reports whether every element of m is finite.
func MatrixAllFinite(m mat.Matrix) bool {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if !IsFinite(m.At(i, j)) {
				return false
			}
		}
	}
	return true
}
