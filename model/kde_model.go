package model

// QuantileValue pairs a probability with the value of the estimated
// distribution at that probability.
type QuantileValue struct {
	Value    float64 `json:"v,omitempty"`
	Quantile float64 `json:"q,omitempty"`
}
