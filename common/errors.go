package common

import "errors"

var (
	ErrorInvalidValue = errors.New("invalid value")

	// ErrorShapeMismatch reports input whose dimensions do not match the
	// layer the data is offered to.
	ErrorShapeMismatch = errors.New("shape mismatch")

	// ErrorNotTraining reports a fill attempt outside training mode.
	ErrorNotTraining = errors.New("must be in training mode to allow filling")

	// ErrorEmptyBuffer reports a transform attempt before any sample was
	// buffered for the integral transform.
	ErrorEmptyBuffer = errors.New("no sample for the integral transform")

	// ErrorNonFiniteResult reports a NaN or Inf escaping the CDF/PPF
	// pipeline. This is a defect in the kernel or bandwidth computation,
	// not a recoverable input condition.
	ErrorNonFiniteResult = errors.New("non-finite result")
)
