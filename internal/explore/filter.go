// Package explore filters and aggregates a normalized wine table.
package explore

import (
	"strings"

	"github.com/sells-group/wine-cli/internal/model"
)

// Range is an inclusive numeric bound.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the bound.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Filter selects wines. Categories maps a column to its accepted values;
// an empty selection accepts everything. Grapes accepts a wine when any
// term occurs in its grape categories. Nil ranges mean the full observed
// range, so they still drop wines without a vintage.
type Filter struct {
	Categories map[string][]string
	Grapes     []string
	Alcohol    *Range
	Vintage    *Range
}

// Apply returns the wines that pass every part of f, in input order.
func Apply(wines []model.Wine, f Filter) []model.Wine {
	alcohol, vintage := FullRange(wines)
	if f.Alcohol != nil {
		alcohol = *f.Alcohol
	}
	if f.Vintage != nil {
		vintage = *f.Vintage
	}

	sets := make(map[string]map[string]struct{}, len(f.Categories))
	for col, values := range f.Categories {
		if len(values) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[v] = struct{}{}
		}
		sets[col] = set
	}

	out := make([]model.Wine, 0, len(wines))
	for _, w := range wines {
		if !matchCategories(w, sets) || !matchGrapes(w, f.Grapes) {
			continue
		}
		if !alcohol.Contains(w.Alcohol) {
			continue
		}
		if !w.HasVintage() || !vintage.Contains(*w.Vintage) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func matchCategories(w model.Wine, sets map[string]map[string]struct{}) bool {
	for col, set := range sets {
		if _, ok := set[w.Cell(col)]; !ok {
			return false
		}
	}
	return true
}

func matchGrapes(w model.Wine, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	for _, term := range terms {
		if strings.Contains(w.GrapeCategories, term) {
			return true
		}
	}
	return false
}

// FullRange returns the observed Alcohol and Vintage bounds. Wines without
// a vintage do not count toward the vintage bound.
func FullRange(wines []model.Wine) (alcohol, vintage Range) {
	var seenAlcohol, seenVintage bool
	for _, w := range wines {
		if !seenAlcohol {
			alcohol = Range{Min: w.Alcohol, Max: w.Alcohol}
			seenAlcohol = true
		} else {
			alcohol.Min = min(alcohol.Min, w.Alcohol)
			alcohol.Max = max(alcohol.Max, w.Alcohol)
		}
		if w.Vintage == nil {
			continue
		}
		v := *w.Vintage
		if !seenVintage {
			vintage = Range{Min: v, Max: v}
			seenVintage = true
		} else {
			vintage.Min = min(vintage.Min, v)
			vintage.Max = max(vintage.Max, v)
		}
	}
	return alcohol, vintage
}

// Options returns the distinct values of a column in first-seen order.
func Options(ds *model.Dataset, column string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, w := range ds.Wines {
		v := w.Cell(column)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
