package kde

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// BandWidth selects the kernel bandwidth for a reference sample. Selection
// is pluggable so a data-driven rule and an externally learned parameter can
// be swapped without touching the estimator. Implementations must return a
// positive, finite width for any input.
type BandWidth interface {
	BandWidth(xs []float64) float64
}

// SilvermanBandWidth implements the rule-of-thumb bandwidth
// 0.9 * min(sigma, IQR/1.34) * n^(-1/5), with sigma the sample standard
// deviation and IQR the 75th minus the 25th empirical percentile. The
// IQR/1.34 term keeps the rule robust against heavy tails; the n^(-1/5)
// shrinkage trades bias for variance as the sample grows.
type SilvermanBandWidth struct{}

func NewSilvermanBandWidth() *SilvermanBandWidth {
	return &SilvermanBandWidth{}
}

// BandWidth computes the rule on xs. xs need not be sorted and is never
// mutated. Degenerate samples (no spread, or fewer than two values) yield
// MinBandWidth rather than a zero or undefined width.
func (bw *SilvermanBandWidth) BandWidth(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return MinBandWidth
	}

	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)

	a := selectSigma(sorted)
	h := SilvermanFactor * a * math.Pow(float64(n), -0.2)
	if !(h > 0) || math.IsInf(h, 0) {
		return MinBandWidth
	}
	return h
}

// selectSigma returns min(stddev, IQR/1.34), falling back to the standard
// deviation when the quartiles coincide. x must be sorted.
func selectSigma(x []float64) float64 {
	q75 := stat.Quantile(0.75, stat.Empirical, x, nil)
	q25 := stat.Quantile(0.25, stat.Empirical, x, nil)
	iqr := (q75 - q25) / IqrNormalizer

	stdDev := stat.StdDev(x, nil)

	if iqr > 0 && iqr < stdDev {
		return iqr
	}
	return stdDev
}

// SigmoidBandWidth squashes an externally learned raw parameter through a
// sigmoid, guaranteeing a width in (0, 1) regardless of the raw value's sign
// or magnitude. The raw parameter is owned and updated by the caller; this
// type only reads it.
type SigmoidBandWidth struct {
	Raw float64
}

func NewSigmoidBandWidth(raw float64) *SigmoidBandWidth {
	return &SigmoidBandWidth{Raw: raw}
}

func (bw *SigmoidBandWidth) BandWidth(xs []float64) float64 {
	h := sigmoid(bw.Raw)
	if !(h > 0) {
		// sigmoid underflows to exactly 0 for raw below about -745.
		return MinBandWidth
	}
	return h
}
