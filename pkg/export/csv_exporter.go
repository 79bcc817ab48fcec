package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// utf8BOM lets spreadsheet applications detect the encoding of non-ASCII names.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVExporter renders tables into CSV bytes.
type CSVExporter struct {
	bom bool
}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// WithBOM prefixes output with a UTF-8 byte order mark.
func (e *CSVExporter) WithBOM() *CSVExporter {
	return &CSVExporter{bom: true}
}

// Render writes a header line of column labels followed by every row. Cells
// that a spreadsheet would evaluate as formulas are prefixed with a quote.
func (e *CSVExporter) Render(table Table) ([]byte, error) {
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("csv requires at least one column")
	}
	buf := &bytes.Buffer{}
	if e.bom {
		buf.Write(utf8BOM)
	}
	w := csv.NewWriter(buf)
	if err := w.Write(table.labels()); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for i, row := range table.Rows {
		record := table.record(row)
		for j := range record {
			record[j] = neutralize(record[j])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func neutralize(cell string) string {
	if cell == "" {
		return cell
	}
	if strings.ContainsRune("=+-@\t\r", rune(cell[0])) {
		return "'" + cell
	}
	return cell
}
