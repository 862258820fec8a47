// Package geometry defines the rectangles handled by the packer together with
// their pure geometric operations: fit test, overlap test, rotation and
// placement.
package geometry
