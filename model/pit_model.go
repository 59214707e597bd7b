package model

// State is a serializable snapshot of a batch-PIT normalization layer: the
// sample buffer contents plus the learned raw bandwidths, everything that
// must survive a save/reload cycle. Only the filled rows of the buffer are
// captured; unset rows hold a NaN sentinel and are not representable in
// JSON anyway.
type State struct {
	NumFeatures int `json:"num_features"`
	Capacity    int `json:"capacity"`
	Size        int `json:"size"`

	// Values holds the first Size rows of the buffer, row-major, so
	// len(Values) == Size*NumFeatures.
	Values []float64 `json:"values"`

	// RawBandwidths is present only for layers with trainable bandwidths,
	// one raw (pre-squashing) scalar per feature.
	RawBandwidths []float64 `json:"raw_bandwidths,omitempty"`
}
