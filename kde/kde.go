package kde

import (
	"math"

	"github.com/MrShoenel/batch-pit-normalization/common"
	"github.com/MrShoenel/batch-pit-normalization/model"
	"gonum.org/v1/gonum/floats"
)

// KernelCDF is the smoothed empirical CDF of a reference sample: a mixture
// of one kernel integral per sample,
//
//	F(x) = 1/m * sum_i Cdf((x - xs[i]) / bw)
//
// With a Gaussian kernel the mixture is the exact integral of the kernel
// density estimate, so no numeric integration is involved. Construction is
// cheap on purpose; callers build one estimator per feature per batch.
type KernelCDF struct {
	xs     []float64
	bw     float64
	kernel Kernel
}

// NewKernelCDF builds the smoothed CDF over xs with bandwidth bw. The
// reference sample must be non-empty and the bandwidth positive and finite.
// xs is retained, not copied; callers must not mutate it while the
// estimator is in use.
func NewKernelCDF(xs []float64, bw float64) (*KernelCDF, error) {
	if len(xs) == 0 {
		return nil, common.ErrorInvalidValue
	}
	if !(bw > 0) || math.IsInf(bw, 0) {
		return nil, common.ErrorInvalidValue
	}
	return &KernelCDF{
		xs:     xs,
		bw:     bw,
		kernel: NewGaussianKernel(),
	}, nil
}

// Len returns the reference sample count.
func (k *KernelCDF) Len() int { return len(k.xs) }

// BandWidth returns the width the estimator was built with.
func (k *KernelCDF) BandWidth() float64 { return k.bw }

// Evaluate returns F(x).
func (k *KernelCDF) Evaluate(x float64) float64 {
	sum := 0.0
	for _, xi := range k.xs {
		sum += k.kernel.Cdf((x - xi) / k.bw)
	}
	return sum / float64(len(k.xs))
}

// EvaluateEach evaluates the CDF at every query point independently. Cost is
// O(len(k.xs)) per point.
func (k *KernelCDF) EvaluateEach(xs []float64) []float64 {
	res := make([]float64, len(xs))
	for i, x := range xs {
		res[i] = k.Evaluate(x)
	}
	return res
}

// Density returns the kernel density estimate at x, the derivative of
// Evaluate.
func (k *KernelCDF) Density(x float64) float64 {
	sum := 0.0
	for _, xi := range k.xs {
		sum += k.kernel.Shape((x - xi) / k.bw)
	}
	return sum / (k.bw * float64(len(k.xs)))
}

// Quantile inverts the estimated CDF at p. The mixture CDF of a Gaussian
// kernel is strictly increasing, so the root is unique; it is found by
// widening a bracket around the reference sample until it straddles p, then
// bisecting.
func (k *KernelCDF) Quantile(p float64) (*model.QuantileValue, error) {
	if !(p > 0 && p < 1) {
		return nil, common.ErrorInvalidValue
	}

	lo := floats.Min(k.xs) - quantileBracketCut*k.bw
	hi := floats.Max(k.xs) + quantileBracketCut*k.bw
	for k.Evaluate(lo) > p {
		lo -= hi - lo
	}
	for k.Evaluate(hi) < p {
		hi += hi - lo
	}

	for i := 0; i < quantileMaxIter; i++ {
		mid := 0.5 * (lo + hi)
		if mid <= lo || mid >= hi {
			// Bracket narrower than float resolution.
			break
		}
		if k.Evaluate(mid) < p {
			lo = mid
		} else {
			hi = mid
		}
	}

	return &model.QuantileValue{
		Quantile: p,
		Value:    0.5 * (lo + hi),
	}, nil
}
