package packer

import "errors"

var (
	// ErrInvalidBinSize is returned when the bin width or height is not a positive number.
	ErrInvalidBinSize = errors.New("bin width and height must be positive numbers")
	// ErrInvalidItem is returned when an item has a non-positive width or height.
	ErrInvalidItem = errors.New("item width and height must be positive numbers")
)
