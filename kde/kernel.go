package kde

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// Kernel is the smoothing function placed on every reference sample. Shape
// is the kernel's density at a normalized distance u, Cdf its integral from
// -inf to u. A closed-form Cdf is what lets the mixture CDF be evaluated
// exactly instead of by quadrature.
type Kernel interface {
	Shape(u float64) float64
	Cdf(u float64) float64
}

type GaussianKernel struct {
	std distuv.Normal
}

func NewGaussianKernel() *GaussianKernel {
	return &GaussianKernel{
		std: distuv.UnitNormal,
	}
}

func (k *GaussianKernel) Shape(u float64) float64 {
	return k.std.Prob(u)
}

// Cdf evaluates the standard normal CDF, 0.5*(1+erf(u/sqrt(2))).
func (k *GaussianKernel) Cdf(u float64) float64 {
	return k.std.CDF(u)
}
