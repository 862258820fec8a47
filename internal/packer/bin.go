package packer

import "github.com/eugenenazirov/binpacker/internal/geometry"

// Bin is a fixed-size container. Items holds value snapshots in placement
// order; the last entry is the reference for the next placement.
type Bin struct {
	Width  float64         `json:"width"`
	Height float64         `json:"height"`
	Items  []geometry.Item `json:"items"`
}

// NewBin creates an empty bin of the given size.
func NewBin(width, height float64) *Bin {
	return &Bin{Width: width, Height: height}
}

// CanAccept reports whether item, at its current position, overlaps none of
// the placed items. Container bounds are not checked here.
func (b *Bin) CanAccept(item geometry.Item) bool {
	for _, placed := range b.Items {
		if item.Overlaps(placed) {
			return false
		}
	}
	return true
}

// TryPlace attempts to add item in its current orientation. On success the
// item's position is updated and a snapshot is appended; on failure neither
// the bin nor the item changes.
func (b *Bin) TryPlace(item *geometry.Item) bool {
	candidate, ok := b.candidate(*item)
	if !ok || !b.CanAccept(candidate) {
		return false
	}
	b.Items = append(b.Items, candidate)
	*item = candidate
	return true
}

// TryPlaceWithRotation tries item as given, then rotated by 90 degrees.
// When both attempts fail the item is left exactly as it was.
func (b *Bin) TryPlaceWithRotation(item *geometry.Item) bool {
	if b.TryPlace(item) {
		return true
	}
	rotated := item.Rotated90()
	if b.TryPlace(&rotated) {
		*item = rotated
		return true
	}
	return false
}

// candidate computes the shelf position for item relative to the most
// recently placed item. Only stacking directly below it or opening a new
// column to its right is considered.
func (b *Bin) candidate(item geometry.Item) (geometry.Item, bool) {
	if len(b.Items) == 0 {
		if !item.FitsInside(b.Width, b.Height) {
			return item, false
		}
		item.Place(0, 0)
		return item, true
	}

	last := b.Items[len(b.Items)-1]
	if last.Width == item.Width && last.Bottom()+item.Height <= b.Height {
		item.Place(last.X, last.Bottom())
		return item, true
	}

	x := last.Right()
	if x+item.Width > b.Width || item.Height > b.Height {
		return item, false
	}
	item.Place(x, 0)
	return item, true
}

// Len returns the number of placed items.
func (b *Bin) Len() int {
	return len(b.Items)
}

func (b *Bin) Area() float64 {
	return b.Width * b.Height
}

// UsedArea sums the area of the placed items.
func (b *Bin) UsedArea() float64 {
	var total float64
	for _, it := range b.Items {
		total += it.Area()
	}
	return total
}

// Efficiency returns the used share of the bin as a percentage.
func (b *Bin) Efficiency() float64 {
	area := b.Area()
	if area == 0 {
		return 0
	}
	return b.UsedArea() / area * 100
}
