package geometry

import (
	"fmt"
	"math"
)

// Item is an axis-aligned rectangle that can be rotated by 90 degrees and
// placed at a position inside a bin.
type Item struct {
	ID      string  `json:"id"`
	Label   string  `json:"label,omitempty"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Rotated bool    `json:"rotated"`
}

// NewItem creates an unplaced item at (0,0).
func NewItem(id string, width, height float64) Item {
	return Item{ID: id, Width: width, Height: height}
}

// Validate reports ErrInvalidDimensions when either side is not a positive finite number.
func (it Item) Validate() error {
	if !positive(it.Width) || !positive(it.Height) {
		return fmt.Errorf("%w: %gx%g", ErrInvalidDimensions, it.Width, it.Height)
	}
	return nil
}

// FitsInside reports whether the item, in its current orientation, is no
// larger than a container of the given size.
func (it Item) FitsInside(width, height float64) bool {
	return it.Width <= width && it.Height <= height
}

// Rotate swaps width and height in place.
func (it *Item) Rotate() {
	it.Width, it.Height = it.Height, it.Width
	it.Rotated = !it.Rotated
}

// Rotated90 returns a rotated copy, leaving the receiver untouched.
func (it Item) Rotated90() Item {
	it.Rotate()
	return it
}

// Place moves the item to (x, y). No bounds or overlap checks are made.
func (it *Item) Place(x, y float64) {
	it.X = x
	it.Y = y
}

// Overlaps reports whether the two rectangles share a region of positive
// area. Rectangles that only touch along an edge do not overlap.
func (it Item) Overlaps(other Item) bool {
	return it.X < other.X+other.Width &&
		it.X+it.Width > other.X &&
		it.Y < other.Y+other.Height &&
		it.Y+it.Height > other.Y
}

func (it Item) Area() float64 {
	return it.Width * it.Height
}

func (it Item) Right() float64 {
	return it.X + it.Width
}

func (it Item) Bottom() float64 {
	return it.Y + it.Height
}

// String renders the item as "WxH@(X,Y)".
func (it Item) String() string {
	return fmt.Sprintf("%gx%g@(%g,%g)", it.Width, it.Height, it.X, it.Y)
}

// ValidateSize checks a container size with the same rules as item dimensions.
func ValidateSize(width, height float64) error {
	if !positive(width) || !positive(height) {
		return fmt.Errorf("%w: %gx%g", ErrInvalidDimensions, width, height)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
