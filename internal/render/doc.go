// Package render draws packing results as PNG, SVG, PDF and DXF documents.
// Renderers only read the result they are given; bins are laid out left to
// right with the origin of each bin at its top-left corner (DXF uses the
// drawing's native bottom-left origin).
package render
