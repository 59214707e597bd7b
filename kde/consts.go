package kde

const (
	// MinBandWidth floors degenerate bandwidths. A reference sample with no
	// spread (all values identical) drives the Silverman rule to zero, and a
	// zero bandwidth turns the kernel argument into 0/0. Any positive width
	// gives the correct limiting CDF (a step at the shared value), so the
	// floor only needs to be small, not scale-aware.
	MinBandWidth = 1e-9

	// SilvermanFactor is the leading constant of the rule-of-thumb
	// bandwidth 0.9 * min(sigma, IQR/1.34) * n^(-1/5).
	SilvermanFactor = 0.9

	// IqrNormalizer rescales the interquartile range into a robust estimate
	// of a Gaussian's standard deviation.
	IqrNormalizer = 1.34

	// quantileBracketCut is how many bandwidths beyond the extreme reference
	// samples the quantile search starts bracketing from.
	quantileBracketCut = 4.0

	// quantileMaxIter bounds the bisection; 200 halvings exhaust float64
	// resolution for any bracket the search can produce.
	quantileMaxIter = 200
)
