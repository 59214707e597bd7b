package pit

import (
	"math"

	"github.com/MrShoenel/batch-pit-normalization/common"
	"gonum.org/v1/gonum/stat/distuv"
)

// ppfClipEpsilon bounds probabilities away from 0 and 1 before the inverse
// normal CDF; the probit diverges at both ends.
const ppfClipEpsilon = 9e-8

// ToUniformCentered shifts CDF values from (0,1) onto (-0.5, 0.5) in place.
func ToUniformCentered(vals []float64) {
	for i := range vals {
		vals[i] -= 0.5
	}
}

// ToStandardNormal maps CDF values onto standard-normal quantiles in place:
// each value is clipped to [eps, 1-eps], then pushed through the probit
// sqrt(2)*erfinv(2x-1). A non-finite value on either side of the probit
// means the upstream kernel or bandwidth computation produced an invalid
// probability; that is surfaced as an error, never masked.
func ToStandardNormal(vals []float64) error {
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return common.ErrorNonFiniteResult
		}
		r := distuv.UnitNormal.Quantile(clipProb(v))
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return common.ErrorNonFiniteResult
		}
		vals[i] = r
	}
	return nil
}

func clipProb(p float64) float64 {
	if p < ppfClipEpsilon {
		return ppfClipEpsilon
	}
	if p > 1-ppfClipEpsilon {
		return 1 - ppfClipEpsilon
	}
	return p
}
