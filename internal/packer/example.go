package packer

import "github.com/eugenenazirov/binpacker/internal/geometry"

// ExampleBinWidth and ExampleBinHeight size the bins of the demo scenario.
const (
	ExampleBinWidth  = 20.0
	ExampleBinHeight = 10.0
)

// ExampleItems returns the demo item list packed by the CLI when no input is
// given. IDs are left empty so Pack numbers them item-1 to item-11.
func ExampleItems() []geometry.Item {
	dims := [][2]float64{
		{5, 10}, {3, 7}, {8, 8}, {6, 6}, {6, 6}, {2, 1},
		{6, 4}, {3, 3}, {3, 3}, {8, 4}, {8, 1},
	}
	out := make([]geometry.Item, len(dims))
	for i, d := range dims {
		out[i] = geometry.Item{Width: d[0], Height: d[1]}
	}
	return out
}
