package packer

import "github.com/eugenenazirov/binpacker/internal/geometry"

// Result is the outcome of a packing run. Bins are in creation order; Dropped
// lists the items that fit no bin of the requested size in either orientation.
type Result struct {
	Bins    []Bin           `json:"bins"`
	Dropped []geometry.Item `json:"dropped"`
}

// PlacedCount returns the number of items placed across all bins.
func (r Result) PlacedCount() int {
	n := 0
	for i := range r.Bins {
		n += r.Bins[i].Len()
	}
	return n
}

// TotalEfficiency returns the overall used area percentage over all bins.
func (r Result) TotalEfficiency() float64 {
	var used, total float64
	for i := range r.Bins {
		used += r.Bins[i].UsedArea()
		total += r.Bins[i].Area()
	}
	if total == 0 {
		return 0
	}
	return used / total * 100
}

// Packer describes the behaviour required from a bin packer.
type Packer interface {
	Pack(items []geometry.Item, binWidth, binHeight float64) (Result, error)
}
