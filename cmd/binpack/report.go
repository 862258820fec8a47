package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/eugenenazirov/binpacker/internal/packer"
	"github.com/eugenenazirov/binpacker/internal/render"
)

func writeReport(w io.Writer, res packer.Result, binWidth, binHeight float64) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Used %d bins.\n", len(res.Bins))
	for i := range res.Bins {
		bin := &res.Bins[i]
		fmt.Fprintf(&b, "Bin %d: %d items, %.1f%% used\n", i+1, bin.Len(), bin.Efficiency())
		for _, it := range bin.Items {
			rotated := ""
			if it.Rotated {
				rotated = " (rotated)"
			}
			fmt.Fprintf(&b, "  %-10s %gx%g at (%g,%g)%s\n", it.ID, it.Width, it.Height, it.X, it.Y, rotated)
		}
	}
	if len(res.Bins) > 0 {
		fmt.Fprintf(&b, "Overall efficiency: %.1f%%\n", res.TotalEfficiency())
	}
	if len(res.Dropped) > 0 {
		fmt.Fprintf(&b, "Dropped %d item(s) larger than the %gx%g bin:\n", len(res.Dropped), binWidth, binHeight)
		for _, it := range res.Dropped {
			fmt.Fprintf(&b, "  %-10s %gx%g\n", it.ID, it.Width, it.Height)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// writeOutput renders res to path, choosing the format by file extension.
func writeOutput(path string, res packer.Result, scale float64) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".dxf" {
		return render.DXF(path, res)
	}

	opts := render.DefaultOptions()
	opts.Scale = scale

	var encode func(io.Writer) error
	switch ext {
	case ".png":
		encode = func(w io.Writer) error { return render.PNG(w, res, opts) }
	case ".svg":
		encode = func(w io.Writer) error { return render.SVG(w, res, opts) }
	case ".pdf":
		encode = func(w io.Writer) error { return render.PDF(w, res) }
	default:
		return fmt.Errorf("unsupported output format %q", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
