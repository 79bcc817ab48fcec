package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title: "Applications",
		Columns: []Column{
			{Key: "name", Label: "Name", Width: 2},
			{Key: "status", Label: "Status"},
		},
		Rows: []map[string]string{
			{"name": "Alice", "status": "approved"},
			{"name": "Bob, Jr.", "status": "pending"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleTable())
	require.NoError(t, err)
	assert.Equal(t, "Name,Status\nAlice,approved\n\"Bob, Jr.\",pending\n", string(out))

	_, err = NewCSVExporter().Render(Table{})
	require.Error(t, err)
}

func TestCSVExporterNeutralizesFormulasAndWritesBOM(t *testing.T) {
	table := Table{
		Columns: []Column{{Key: "name", Label: "Name"}},
		Rows:    []map[string]string{{"name": "=HYPERLINK(\"x\")"}, {"name": "Zoë"}},
	}
	out, err := NewCSVExporter().WithBOM().Render(table)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, utf8BOM))
	assert.Equal(t, "Name\n\"'=HYPERLINK(\"\"x\"\")\"\nZoë\n", string(out[len(utf8BOM):]))
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestPDFExporterRenderImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 40, 30))
	img.Set(1, 1, color.Gray{Y: 200})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	out, err := NewPDFExporter().RenderImage(buf.Bytes(), "Certificate")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	_, err = NewPDFExporter().RenderImage([]byte("not a png"), "x")
	require.Error(t, err)
}

func TestColumnWidths(t *testing.T) {
	w := columnWidths([]Column{{Width: 2}, {}, {Width: 1}}, 100)
	assert.InDelta(t, 50, w[0], 0.001)
	assert.InDelta(t, 25, w[1], 0.001)
	assert.InDelta(t, 25, w[2], 0.001)
	assert.Equal(t, "abcdefg", truncate("abcdefg", 100))
	assert.Equal(t, "abcdefghi...", truncate("abcdefghijklmnopqrstuvwxyz", 20))
}
