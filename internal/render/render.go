package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/eugenenazirov/binpacker/internal/geometry"
	"github.com/eugenenazirov/binpacker/internal/packer"
)

// MaxCanvasSide is the largest PNG or SVG canvas edge in pixels.
const MaxCanvasSide = 8192

var (
	// ErrNothingToRender is returned when a result holds no bins.
	ErrNothingToRender = errors.New("result has no bins to render")
	// ErrCanvasTooLarge is returned when the bins cannot fit a canvas of
	// MaxCanvasSide at any positive scale.
	ErrCanvasTooLarge = errors.New("layout does not fit the maximum canvas size")
)

// Options controls raster and vector output size.
type Options struct {
	// Scale is the number of pixels per unit of bin length.
	Scale float64
	// Gap is the spacing in pixels between adjacent bins and around the canvas.
	Gap int
}

// DefaultOptions returns the options used when a zero Options is passed.
func DefaultOptions() Options {
	return Options{Scale: 20, Gap: 16}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.Scale <= 0 || math.IsInf(o.Scale, 0) || math.IsNaN(o.Scale) {
		o.Scale = def.Scale
	}
	if o.Gap < 0 {
		o.Gap = def.Gap
	}
	return o
}

// fitOptions normalizes opts and lowers the scale so the canvas stays within
// MaxCanvasSide on both axes.
func fitOptions(res packer.Result, opts Options, header int) (Options, error) {
	opts = opts.normalized()

	var sumW, maxH float64
	for _, b := range res.Bins {
		sumW += b.Width
		maxH = max(maxH, b.Height)
	}
	// Fixed pixels plus one per bin of rounding slack.
	n := len(res.Bins)
	fixedW := float64(opts.Gap*(n+1) + n)
	fixedH := float64(header + 2*opts.Gap + 1)

	scale := opts.Scale
	if sumW*scale+fixedW > MaxCanvasSide {
		scale = (MaxCanvasSide - fixedW) / sumW
	}
	if maxH*scale+fixedH > MaxCanvasSide {
		scale = min(scale, (MaxCanvasSide-fixedH)/maxH)
	}
	if scale <= 0 || math.IsNaN(scale) {
		return opts, ErrCanvasTooLarge
	}
	opts.Scale = scale
	return opts, nil
}

type rgb struct {
	R, G, B uint8
}

func (c rgb) hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

var palette = []rgb{
	{R: 76, G: 175, B: 80},
	{R: 33, G: 150, B: 243},
	{R: 255, G: 152, B: 0},
	{R: 156, G: 39, B: 176},
	{R: 0, G: 188, B: 212},
	{R: 244, G: 67, B: 54},
	{R: 121, G: 85, B: 72},
	{R: 96, G: 125, B: 139},
}

func colorAt(i int) rgb {
	return palette[i%len(palette)]
}

// frame is the pixel rectangle occupied by one bin on the canvas.
type frame struct {
	index int
	bin   packer.Bin
	x, y  int
	w, h  int
}

type box struct {
	x, y, w, h int
}

// layoutFrames positions every bin left to right below a header band of the
// given height, and returns the frames with the total canvas size.
func layoutFrames(res packer.Result, opts Options, header int) ([]frame, int, int) {
	frames := make([]frame, 0, len(res.Bins))
	x := opts.Gap
	maxH := 0
	for i, b := range res.Bins {
		f := frame{
			index: i,
			bin:   b,
			x:     x,
			y:     opts.Gap + header,
			w:     px(b.Width, opts.Scale),
			h:     px(b.Height, opts.Scale),
		}
		frames = append(frames, f)
		x += f.w + opts.Gap
		maxH = max(maxH, f.h)
	}
	return frames, x, maxH + header + 2*opts.Gap
}

func (f frame) itemBox(it geometry.Item, scale float64) box {
	x0 := f.x + px(it.X, scale)
	y0 := f.y + px(it.Y, scale)
	return box{
		x: x0,
		y: y0,
		w: f.x + px(it.Right(), scale) - x0,
		h: f.y + px(it.Bottom(), scale) - y0,
	}
}

func px(v, scale float64) int {
	return int(math.Round(v * scale))
}

// itemLabel formats an item as "WxH".
func itemLabel(it geometry.Item) string {
	return fmt.Sprintf("%gx%g", it.Width, it.Height)
}

func binTitle(index int) string {
	return fmt.Sprintf("Bin %d", index+1)
}
