package outline

import "errors"

// ErrInvalidGapRatio is returned when the paragraph gap ratio is not positive.
var ErrInvalidGapRatio = errors.New("paragraph gap ratio must be positive")
