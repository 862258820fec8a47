package render

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/eugenenazirov/binpacker/internal/packer"
)

const dxfTextHeight = 0.5

var dxfColors = []color.ColorNumber{color.Red, color.Yellow, color.Green, color.Cyan, color.Blue, color.Magenta}

// DXF writes the result to path as a DXF drawing in bin units. Each bin gets
// its own layer; bins are placed left to right separated by a tenth of the
// widest bin.
func DXF(path string, res packer.Result) error {
	if len(res.Bins) == 0 {
		return ErrNothingToRender
	}

	d := dxf.NewDrawing()
	gap := 0.0
	for _, b := range res.Bins {
		gap = max(gap, b.Width/10)
	}

	offset := 0.0
	for i, b := range res.Bins {
		layer := fmt.Sprintf("BIN_%d", i+1)
		if _, err := d.AddLayer(layer, dxfColors[i%len(dxfColors)], dxf.DefaultLineType, true); err != nil {
			return fmt.Errorf("add layer %s: %w", layer, err)
		}

		if err := dxfRect(d, offset, 0, b.Width, b.Height); err != nil {
			return err
		}
		if _, err := d.Text(binTitle(i), offset, b.Height+dxfTextHeight, 0, dxfTextHeight); err != nil {
			return fmt.Errorf("add title for %s: %w", layer, err)
		}
		for _, it := range b.Items {
			if err := dxfRect(d, offset+it.X, it.Y, it.Width, it.Height); err != nil {
				return err
			}
		}
		offset += b.Width + gap
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("save dxf: %w", err)
	}
	return nil
}

func dxfRect(d *drawing.Drawing, x, y, w, h float64) error {
	corners := [][2]float64{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
	for i, from := range corners {
		to := corners[(i+1)%len(corners)]
		if _, err := d.Line(from[0], from[1], 0, to[0], to[1], 0); err != nil {
			return fmt.Errorf("add line: %w", err)
		}
	}
	return nil
}
