package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/eugenenazirov/binpacker/internal/packer"
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 8.0
	qrSize       = 30.0
)

// qrMaxPayload bounds the QR payload well below the capacity of a
// low-correction QR code.
const qrMaxPayload = 1024

// binSummary is the payload encoded into each page's QR code. IDs lists the
// first placed items only; Truncated marks that more exist.
type binSummary struct {
	Bin        int      `json:"bin"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	Count      int      `json:"count"`
	Efficiency float64  `json:"efficiency"`
	IDs        []string `json:"ids"`
	Truncated  bool     `json:"truncated,omitempty"`
}

// PDF renders one page per bin followed by a summary page that lists totals
// and dropped items.
func PDF(w io.Writer, res packer.Result) error {
	if len(res.Bins) == 0 && len(res.Dropped) == 0 {
		return ErrNothingToRender
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	for i, b := range res.Bins {
		pdf.AddPage()
		if err := renderBinPage(pdf, b, i); err != nil {
			return err
		}
	}

	pdf.AddPage()
	renderSummaryPage(pdf, res)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func renderBinPage(pdf *fpdf.Fpdf, b packer.Bin, index int) error {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("%s (%g x %g)", binTitle(index), b.Width, b.Height)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Items: %d | Used area: %g | Bin area: %g | Efficiency: %.1f%%",
		b.Len(), b.UsedArea(), b.Area(), b.Efficiency())
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight - qrSize - 10
	drawHeight := pageHeight - drawAreaTop - marginBottom
	scale := math.Min(drawWidth/b.Width, drawHeight/b.Height)
	offsetX := marginLeft
	offsetY := drawAreaTop

	pdf.SetFillColor(245, 245, 245)
	pdf.SetDrawColor(60, 60, 60)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, b.Width*scale, b.Height*scale, "FD")

	for i, it := range b.Items {
		c := colorAt(i)
		pw := it.Width * scale
		ph := it.Height * scale
		px := offsetX + it.X*scale
		py := offsetY + it.Y*scale

		pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Rect(px, py, pw, ph, "FD")

		label := itemLabel(it)
		pdf.SetFont("Helvetica", "", labelFontSize(pw, ph))
		pdf.SetTextColor(255, 255, 255)
		if lw := pdf.GetStringWidth(label); lw < pw-1 && ph > 4 {
			pdf.SetXY(px+(pw-lw)/2, py+ph/2-2)
			pdf.CellFormat(lw, 4, label, "", 0, "C", false, 0, "")
		}
	}
	pdf.SetTextColor(0, 0, 0)

	return drawQRCode(pdf, b, index, pageWidth-marginRight-qrSize, drawAreaTop)
}

func drawQRCode(pdf *fpdf.Fpdf, b packer.Bin, index int, x, y float64) error {
	payload, err := qrPayload(b, index)
	if err != nil {
		return err
	}
	png, err := qrcode.Encode(string(payload), qrcode.Low, 256)
	if err != nil {
		return fmt.Errorf("generate qr code for bin %d: %w", index+1, err)
	}

	name := fmt.Sprintf("qr_bin_%d", index+1)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	pdf.ImageOptions(name, x, y, qrSize, qrSize, false, opts, 0, "")
	return nil
}

// qrPayload encodes the bin summary, adding item IDs in placement order while
// the JSON stays within qrMaxPayload bytes.
func qrPayload(b packer.Bin, index int) ([]byte, error) {
	summary := binSummary{
		Bin:        index + 1,
		Width:      b.Width,
		Height:     b.Height,
		Count:      len(b.Items),
		Efficiency: math.Round(b.Efficiency()*10) / 10,
		IDs:        []string{},
		Truncated:  len(b.Items) > 0,
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("marshal bin summary: %w", err)
	}

	for i, it := range b.Items {
		summary.IDs = append(summary.IDs, it.ID)
		summary.Truncated = i < len(b.Items)-1
		next, err := json.Marshal(summary)
		if err != nil {
			return nil, fmt.Errorf("marshal bin summary: %w", err)
		}
		if len(next) > qrMaxPayload {
			break
		}
		payload = next
	}
	return payload, nil
}

func renderSummaryPage(pdf *fpdf.Fpdf, res packer.Result) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, "Summary", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	lines := []string{
		fmt.Sprintf("Used %d bins.", len(res.Bins)),
		fmt.Sprintf("Placed items: %d", res.PlacedCount()),
		fmt.Sprintf("Overall efficiency: %.1f%%", res.TotalEfficiency()),
		fmt.Sprintf("Dropped items: %d", len(res.Dropped)),
	}
	for _, line := range lines {
		pdf.SetX(marginLeft)
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}

	if len(res.Dropped) == 0 {
		return
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetX(marginLeft)
	pdf.CellFormat(60, 6, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, "Size", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, it := range res.Dropped {
		if pdf.GetY() > pageHeight-marginBottom-6 {
			pdf.AddPage()
			pdf.SetY(marginTop)
		}
		pdf.SetX(marginLeft)
		pdf.CellFormat(60, 6, it.ID, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, itemLabel(it), "", 1, "L", false, 0, "")
	}
}

func labelFontSize(w, h float64) float64 {
	return math.Max(5, math.Min(10, math.Min(w, h)/2))
}
