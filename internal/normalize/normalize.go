// Package normalize turns a persisted wine table into typed, filterable
// records plus the grape vocabulary of the table.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/wine-cli/internal/config"
	"github.com/sells-group/wine-cli/internal/model"
	"github.com/sells-group/wine-cli/internal/table"
)

// MalformedAttributeError reports a value that cannot be coerced to its
// column type. It aborts the whole load.
type MalformedAttributeError struct {
	Column string
	Row    int
	Value  string
}

func (e *MalformedAttributeError) Error() string {
	return fmt.Sprintf("normalize: row %d: %s value %q is not numeric", e.Row, e.Column, e.Value)
}

var (
	nonFloatRe = regexp.MustCompile(`[^0-9.\-]`)
	nonYearRe  = regexp.MustCompile(`[^0-9.]`)
)

// descriptors are body words that sometimes land in the Alcohol column.
var descriptors = map[string]struct{}{
	"full":   {},
	"medium": {},
	"light":  {},
}

// fillable typed columns take fill defaults before coercion.
var fillableTyped = map[string]struct{}{
	model.ColumnAlcohol: {},
	model.ColumnVintage: {},
}

// typed columns are held in Wine fields rather than Wine.Fields.
var typed = map[string]struct{}{
	model.TitleKey:              {},
	model.ColumnAlcohol:         {},
	model.ColumnVintage:         {},
	model.ColumnCountry:         {},
	model.ColumnGrapes:          {},
	model.ColumnGrapeCategories: {},
}

// Normalizer applies the column coercions and fill defaults.
type Normalizer struct {
	fill []config.FillRule
}

// New creates a Normalizer with the given fill rules.
func New(fill []config.FillRule) *Normalizer {
	return &Normalizer{fill: fill}
}

// Normalize converts every row of t. Missing Alcohol, Vintage and Country
// columns are created. The result is the same for the same table.
func (n *Normalizer) Normalize(t *table.Table, country string) (*model.Dataset, error) {
	columns := append([]string(nil), t.Columns...)
	for _, col := range []string{model.TitleKey, model.ColumnAlcohol, model.ColumnVintage, model.ColumnCountry, model.ColumnGrapes} {
		columns = appendMissing(columns, col)
	}
	for _, r := range n.fill {
		columns = appendMissing(columns, r.Column)
	}
	columns = appendMissing(columns, model.ColumnGrapeCategories)

	wines := make([]model.Wine, 0, t.Len())
	for i, row := range t.Rows {
		w, err := n.normalizeRow(i, row, columns, country)
		if err != nil {
			return nil, err
		}
		wines = append(wines, w)
	}

	vocab := Vocabulary(wines)
	for i := range wines {
		wines[i].GrapeCategories = Categories(vocab, wines[i].Grapes)
	}

	return &model.Dataset{
		Country:    strings.ToLower(country),
		Columns:    columns,
		Wines:      wines,
		Vocabulary: vocab,
	}, nil
}

func (n *Normalizer) normalizeRow(i int, row table.Row, columns []string, country string) (model.Wine, error) {
	rawAlcohol := n.typedCell(row, model.ColumnAlcohol)
	alcohol, err := Alcohol(rawAlcohol)
	if err != nil {
		return model.Wine{}, &MalformedAttributeError{Column: model.ColumnAlcohol, Row: i, Value: rawAlcohol}
	}

	w := model.Wine{
		Title:   row[model.TitleKey],
		Alcohol: alcohol,
		Vintage: Vintage(n.typedCell(row, model.ColumnVintage)),
		Country: row[model.ColumnCountry],
		Grapes:  ParseGrapeList(row[model.ColumnGrapes]),
		Fields:  make(map[string]string),
	}
	if w.Country == "" {
		w.Country = country
	}

	for _, col := range columns {
		if _, ok := typed[col]; ok {
			continue
		}
		w.Fields[col] = row[col]
	}
	for _, r := range n.fill {
		if _, ok := typed[r.Column]; ok {
			continue
		}
		if w.Fields[r.Column] == "" {
			w.Fields[r.Column] = r.Value
		}
	}
	return w, nil
}

// typedCell returns the cell for a typed column, or its fill default when
// the cell is blank. Only Alcohol and Vintage take defaults.
func (n *Normalizer) typedCell(row table.Row, col string) string {
	v := row[col]
	if strings.TrimSpace(v) != "" {
		return v
	}
	if _, ok := fillableTyped[col]; !ok {
		return v
	}
	for _, r := range n.fill {
		if r.Column == col {
			return r.Value
		}
	}
	return v
}

// Alcohol coerces an Alcohol cell. Missing values and body descriptors
// become 0.
func Alcohol(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if _, ok := descriptors[strings.ToLower(s)]; ok {
		return 0, nil
	}
	f, err := strconv.ParseFloat(nonFloatRe.ReplaceAllString(s, ""), 64)
	if err != nil {
		return 0, err
	}
	return f, nil
}

// Vintage coerces a Vintage cell to a whole year. A missing value is 0; a
// value with no digits is nil.
func Vintage(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		zero := 0.0
		return &zero
	}
	digits, _, _ := strings.Cut(nonYearRe.ReplaceAllString(s, ""), ".")
	if digits == "" {
		return nil
	}
	year, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return nil
	}
	f := float64(year)
	return &f
}

// ParseGrapeList reads a stored list cell such as "['50% Merlot', 'Syrah']".
// An empty cell, or one whose first item is the "a" placeholder, yields an
// empty list.
func ParseGrapeList(s string) []string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return []string{}
	}
	inner := s[1 : len(s)-1]
	inner = strings.ReplaceAll(inner, "'", "")
	inner = strings.ReplaceAll(inner, `"`, "")

	parts := strings.Split(inner, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	if out[0] == "a" || (len(out) == 1 && out[0] == "") {
		return []string{}
	}
	return out
}

func appendMissing(columns []string, col string) []string {
	for _, c := range columns {
		if c == col {
			return columns
		}
	}
	return append(columns, col)
}
