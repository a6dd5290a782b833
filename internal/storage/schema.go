package storage

import (
	"fmt"
	"strings"
)

// TableSpec describes a destination table derived from the output header.
// Every column is stored as text so transformed cells land verbatim.
type TableSpec struct {
	Name    string
	Columns []ColumnSpec
}

type ColumnSpec struct {
	Name string
	Type string
}

// NewTableSpec builds a spec with one column of type colType per header
// field. Duplicate or blank names are rejected because no SQL backend can
// create them.
func NewTableSpec(name string, header []string, colType string) (TableSpec, error) {
	if strings.TrimSpace(name) == "" {
		return TableSpec{}, fmt.Errorf("table name is empty")
	}
	seen := make(map[string]bool, len(header))
	cols := make([]ColumnSpec, 0, len(header))
	for _, h := range header {
		if strings.TrimSpace(h) == "" {
			return TableSpec{}, fmt.Errorf("table %s: empty column name", name)
		}
		if seen[h] {
			return TableSpec{}, fmt.Errorf("table %s: duplicate column %q", name, h)
		}
		seen[h] = true
		cols = append(cols, ColumnSpec{Name: h, Type: colType})
	}
	return TableSpec{Name: name, Columns: cols}, nil
}

// ColumnNames returns the column names in order.
func (t TableSpec) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}
