package render

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/eugenenazirov/binpacker/internal/packer"
)

const svgHeader = 24

// SVG writes the result as an SVG document with one labelled group per bin.
func SVG(w io.Writer, res packer.Result, opts Options) error {
	if len(res.Bins) == 0 {
		return ErrNothingToRender
	}
	opts, err := fitOptions(res, opts, svgHeader)
	if err != nil {
		return err
	}

	frames, width, height := layoutFrames(res, opts, svgHeader)
	if width > MaxCanvasSide || height > MaxCanvasSide {
		return ErrCanvasTooLarge
	}
	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Title(fmt.Sprintf("%d bins", len(frames)))

	for _, f := range frames {
		canvas.Gid(fmt.Sprintf("bin-%d", f.index+1))
		canvas.Text(f.x, f.y-8, binTitle(f.index), "font-family:sans-serif;font-size:14px;fill:#333")
		canvas.Rect(f.x, f.y, f.w, f.h, "fill:none;stroke:black;stroke-width:2")

		for i, it := range f.bin.Items {
			b := f.itemBox(it, opts.Scale)
			style := fmt.Sprintf("fill:%s;stroke:black;stroke-width:1", colorAt(i).hex())
			canvas.Rect(b.x, b.y, b.w, b.h, style)
			fontSize := max(8, min(b.w, b.h)/3)
			canvas.Text(b.x+b.w/2, b.y+b.h/2, itemLabel(it),
				fmt.Sprintf("font-family:sans-serif;font-size:%dpx;fill:white;text-anchor:middle;dominant-baseline:middle", fontSize))
		}
		canvas.Gend()
	}

	canvas.End()
	return nil
}
