// Package table reads and writes the persisted wine table: a
// semicolon-separated file with an unnamed index column, one file per
// country.
package table

import (
	"slices"
	"strings"

	"github.com/sells-group/wine-cli/internal/model"
)

// Row maps a column label to its stored text. A missing column and an
// empty cell are the same thing.
type Row map[string]string

// Table is a raw, untyped wine table.
type Table struct {
	Columns []string
	Rows    []Row
}

// FromRecords builds a table whose columns are the union of record labels
// in first-seen order. List values are stored in their rendered form and
// Grapes is always stored as a list.
func FromRecords(recs []*model.RawRecord) *Table {
	t := &Table{}
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		row := make(Row, rec.Len())
		for _, key := range rec.Keys() {
			t.AddColumn(key)
			v, _ := rec.Get(key)
			if key == model.ColumnGrapes {
				v = grapeList(v)
			}
			row[key] = v.String()
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func grapeList(v model.Value) model.Value {
	if v.IsList() {
		return v
	}
	if s := strings.TrimSpace(v.String()); s != "" {
		return model.List(s)
	}
	return model.List()
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// HasColumn reports whether the table has the given column.
func (t *Table) HasColumn(col string) bool {
	return slices.Contains(t.Columns, col)
}

// AddColumn appends a column if it is not present yet.
func (t *Table) AddColumn(col string) {
	if !t.HasColumn(col) {
		t.Columns = append(t.Columns, col)
	}
}
