package explore

import (
	"math"
	"sort"
	"strings"

	"github.com/sells-group/wine-cli/internal/config"
	"github.com/sells-group/wine-cli/internal/model"
)

// Group is one row of a group-by result. MeanAlcohol and MeanVintage are
// only filled by GroupMean; MeanVintage is nil when no wine in the group
// has a vintage.
type Group struct {
	Keys        []string `json:"keys"`
	Count       int      `json:"count"`
	MeanAlcohol *float64 `json:"mean_alcohol,omitempty"`
	MeanVintage *float64 `json:"mean_vintage,omitempty"`
}

type accumulator struct {
	keys       []string
	count      int
	alcoholSum float64
	vintageSum float64
	vintageN   int
}

func groupBy(wines []model.Wine, dims []string) []*accumulator {
	index := make(map[string]*accumulator)
	var order []*accumulator
	for _, w := range wines {
		keys := make([]string, len(dims))
		for i, d := range dims {
			keys[i] = w.Cell(d)
		}
		id := strings.Join(keys, "\x00")
		acc, ok := index[id]
		if !ok {
			acc = &accumulator{keys: keys}
			index[id] = acc
			order = append(order, acc)
		}
		acc.count++
		acc.alcoholSum += w.Alcohol
		if w.Vintage != nil {
			acc.vintageSum += *w.Vintage
			acc.vintageN++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i].keys, order[j].keys
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
	return order
}

// GroupMean averages Alcohol and Vintage per distinct combination of dims.
// Groups are sorted by key.
func GroupMean(wines []model.Wine, dims ...string) []Group {
	accs := groupBy(wines, dims)
	out := make([]Group, 0, len(accs))
	for _, acc := range accs {
		g := Group{Keys: acc.keys, Count: acc.count}
		alc := acc.alcoholSum / float64(acc.count)
		g.MeanAlcohol = &alc
		if acc.vintageN > 0 {
			vin := acc.vintageSum / float64(acc.vintageN)
			g.MeanVintage = &vin
		}
		out = append(out, g)
	}
	return out
}

// GroupCount counts wines per distinct combination of dims. Groups are
// sorted by key.
func GroupCount(wines []model.Wine, dims ...string) []Group {
	accs := groupBy(wines, dims)
	out := make([]Group, 0, len(accs))
	for _, acc := range accs {
		out = append(out, Group{Keys: acc.keys, Count: acc.count})
	}
	return out
}

// Stats are the summary statistics of one numeric column. Std is the
// sample standard deviation and quartiles use linear interpolation.
type Stats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	P25   float64 `json:"p25"`
	P50   float64 `json:"p50"`
	P75   float64 `json:"p75"`
	Max   float64 `json:"max"`
}

// Summary describes the numeric columns of a selection.
type Summary struct {
	Alcohol Stats `json:"alcohol"`
	Vintage Stats `json:"vintage"`
}

// Describe summarizes Alcohol over every wine and Vintage over wines that
// have one.
func Describe(wines []model.Wine) Summary {
	alcohol := make([]float64, 0, len(wines))
	vintage := make([]float64, 0, len(wines))
	for _, w := range wines {
		alcohol = append(alcohol, w.Alcohol)
		if w.Vintage != nil {
			vintage = append(vintage, *w.Vintage)
		}
	}
	return Summary{Alcohol: describe(alcohol), Vintage: describe(vintage)}
}

func describe(values []float64) Stats {
	n := len(values)
	if n == 0 {
		return Stats{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var std float64
	if n > 1 {
		var sq float64
		for _, v := range sorted {
			sq += (v - mean) * (v - mean)
		}
		std = math.Sqrt(sq / float64(n-1))
	}

	return Stats{
		Count: n,
		Mean:  mean,
		Std:   std,
		Min:   sorted[0],
		P25:   quantile(sorted, 0.25),
		P50:   quantile(sorted, 0.50),
		P75:   quantile(sorted, 0.75),
		Max:   sorted[n-1],
	}
}

func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// View is a named aggregate over the current selection.
type View struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Dims   []string `json:"dims"`
	Groups []Group  `json:"groups"`
}

// BuildViews computes every configured view. Unknown kinds are skipped.
func BuildViews(wines []model.Wine, views []config.ViewConfig) []View {
	out := make([]View, 0, len(views))
	for _, vc := range views {
		var groups []Group
		switch vc.Kind {
		case "mean":
			groups = GroupMean(wines, vc.Dims...)
		case "count":
			groups = GroupCount(wines, vc.Dims...)
		default:
			continue
		}
		out = append(out, View{Name: vc.Name, Kind: vc.Kind, Dims: vc.Dims, Groups: groups})
	}
	return out
}
