package analytics

import "errors"

var (
	// ErrEmptyInput is returned when a series has no points but at least one is required.
	ErrEmptyInput = errors.New("empty input")

	// ErrInsufficientData is returned when a series is shorter than an algorithm needs.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidWindow is returned for a window size outside [1, len(series)].
	ErrInvalidWindow = errors.New("invalid window size")

	// ErrInvalidParameter is returned for any other out-of-range configuration value.
	ErrInvalidParameter = errors.New("invalid parameter")
)
