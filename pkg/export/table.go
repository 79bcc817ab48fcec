package export

// Column maps a row key to its printed label.
type Column struct {
	Key   string
	Label string
	// Width is a relative weight used by the PDF layout; zero means 1.
	Width float64
}

// Table defines tabular export content.
type Table struct {
	Title   string
	Columns []Column
	Rows    []map[string]string
}

func (t Table) labels() []string {
	out := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		out[i] = col.Label
		if out[i] == "" {
			out[i] = col.Key
		}
	}
	return out
}

func (t Table) record(row map[string]string) []string {
	out := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		out[i] = row[col.Key]
	}
	return out
}
