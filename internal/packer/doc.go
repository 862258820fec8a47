// Package packer assigns items to fixed-size bins with a deterministic greedy
// heuristic: largest area first, first bin that accepts the item, and a shelf
// placement relative to the most recently placed item in that bin.
package packer
