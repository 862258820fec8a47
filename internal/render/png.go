package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/disintegration/imaging"

	"github.com/eugenenazirov/binpacker/internal/packer"
)

var (
	pngBackground = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	pngBin        = color.NRGBA{R: 235, G: 235, B: 235, A: 255}
	pngStroke     = color.NRGBA{R: 30, G: 30, B: 30, A: 255}
)

// PNG draws every bin side by side and encodes the canvas as PNG.
func PNG(w io.Writer, res packer.Result, opts Options) error {
	img, err := Image(res, opts)
	if err != nil {
		return err
	}
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Image rasterises the result without encoding it.
func Image(res packer.Result, opts Options) (*image.NRGBA, error) {
	if len(res.Bins) == 0 {
		return nil, ErrNothingToRender
	}
	opts, err := fitOptions(res, opts, 0)
	if err != nil {
		return nil, err
	}

	frames, width, height := layoutFrames(res, opts, 0)
	if width > MaxCanvasSide || height > MaxCanvasSide {
		return nil, ErrCanvasTooLarge
	}
	dst := imaging.New(width, height, pngBackground)

	for _, f := range frames {
		binRect := image.Rect(f.x, f.y, f.x+f.w, f.y+f.h)
		fill(dst, binRect, pngBin)
		for i, it := range f.bin.Items {
			b := f.itemBox(it, opts.Scale)
			r := image.Rect(b.x, b.y, b.x+b.w, b.y+b.h)
			c := colorAt(i)
			fill(dst, r, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
			stroke(dst, r, pngStroke)
		}
		stroke(dst, binRect, pngStroke)
	}
	return dst, nil
}

func fill(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// stroke draws a one pixel outline just inside r.
func stroke(dst draw.Image, r image.Rectangle, c color.Color) {
	if r.Empty() {
		return
	}
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), c)
	fill(dst, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), c)
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), c)
	fill(dst, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), c)
}
