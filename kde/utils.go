package kde

import "math"

// sigmoid computes 1/(1+exp(-x)) without overflowing exp for large |x|.
func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1.0 / (1.0 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1.0 + e)
}
