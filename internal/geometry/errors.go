package geometry

import "errors"

// ErrInvalidDimensions is returned when a width or height is not a positive finite number.
var ErrInvalidDimensions = errors.New("dimensions must be positive finite numbers")
