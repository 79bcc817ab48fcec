package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageMargin = 10.0
	a4Long     = 297.0
	a4Short    = 210.0
)

// PDFExporter renders rosters and certificate images as PDF documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a landscape PDF with an optional title and the table body.
func (e *PDFExporter) Render(table Table) ([]byte, error) {
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("pdf requires at least one column")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pageMargin, 15, pageMargin)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if table.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(table.Title)), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	widths := columnWidths(table.Columns, a4Long-2*pageMargin)
	pdf.SetFont("Arial", "B", 9)
	for i, label := range table.labels() {
		pdf.CellFormat(widths[i], 8, tr(label), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range table.Rows {
		for i, value := range table.record(row) {
			pdf.CellFormat(widths[i], 7, tr(truncate(value, widths[i])), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return output(pdf)
}

// RenderImage places a PNG on a single landscape page scaled to fit inside the margins.
func (e *PDFExporter) RenderImage(png []byte, title string) ([]byte, error) {
	if len(png) == 0 {
		return nil, fmt.Errorf("pdf image is empty")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	info := pdf.RegisterImageOptionsReader("certificate", opts, bytes.NewReader(png))
	if pdf.Err() {
		return nil, fmt.Errorf("register certificate image: %w", pdf.Error())
	}

	maxW, maxH := a4Long-2*pageMargin, a4Short-2*pageMargin
	w, h := info.Width(), info.Height()
	scale := maxW / w
	if h*scale > maxH {
		scale = maxH / h
	}
	w, h = w*scale, h*scale
	pdf.ImageOptions("certificate", (a4Long-w)/2, (a4Short-h)/2, w, h, false, opts, 0, "")

	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(cols []Column, total float64) []float64 {
	var sum float64
	for _, c := range cols {
		if c.Width <= 0 {
			sum++
		} else {
			sum += c.Width
		}
	}
	out := make([]float64, len(cols))
	for i, c := range cols {
		weight := c.Width
		if weight <= 0 {
			weight = 1
		}
		out[i] = total * weight / sum
	}
	return out
}

// truncate keeps roughly as many characters as fit an 8pt cell of width mm.
func truncate(s string, width float64) string {
	limit := int(width / 1.6)
	r := []rune(s)
	if limit < 4 || len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
