package layout

import "errors"

var (
	// ErrInvalidHeadingRatio is returned when the heading ratio is not above 1.
	ErrInvalidHeadingRatio = errors.New("heading size ratio must be greater than 1")
	// ErrInvalidMaxHeadingWords is returned when the guard word limit is not positive.
	ErrInvalidMaxHeadingWords = errors.New("max heading words must be positive")
)
