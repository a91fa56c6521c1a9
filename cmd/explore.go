package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/wine-cli/internal/explore"
	"github.com/sells-group/wine-cli/internal/model"
	"github.com/sells-group/wine-cli/internal/normalize"
	"github.com/sells-group/wine-cli/internal/table"
)

var defaultExploreColumns = []string{model.TitleKey, "Region", model.ColumnAlcohol, model.ColumnVintage, model.ColumnGrapeCategories}

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Filter and aggregate a country table in the terminal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("explore"); err != nil {
			return err
		}

		country, _ := cmd.Flags().GetString("country")
		filters, _ := cmd.Flags().GetStringArray("filter")
		grapes, _ := cmd.Flags().GetStringSlice("grape")
		alcohol, _ := cmd.Flags().GetString("alcohol")
		vintage, _ := cmd.Flags().GetString("vintage")
		group, _ := cmd.Flags().GetStringSlice("group")
		mean, _ := cmd.Flags().GetBool("mean")
		describe, _ := cmd.Flags().GetBool("describe")
		views, _ := cmd.Flags().GetBool("views")
		columns, _ := cmd.Flags().GetStringSlice("columns")
		limit, _ := cmd.Flags().GetInt("limit")

		cc, err := resolveCountry(country)
		if err != nil {
			return err
		}
		name := strings.ToLower(cc.Name)

		t, err := table.NewDir(cfg.Table.Dir).Load(cmd.Context(), name)
		if err != nil {
			return err
		}
		ds, err := normalize.New(cfg.Fill).Normalize(t, name)
		if err != nil {
			return err
		}

		f, err := parseFilterFlags(ds.Wines, filters, grapes, alcohol, vintage)
		if err != nil {
			return err
		}
		wines := explore.Apply(ds.Wines, f)
		fmt.Fprintf(os.Stderr, "%d of %d wines selected\n", len(wines), len(ds.Wines))

		switch {
		case describe:
			renderSummary(os.Stdout, explore.Describe(wines))
		case views:
			for _, v := range explore.BuildViews(wines, cfg.Dashboard.Views) {
				fmt.Fprintf(os.Stdout, "\n%s (%s)\n", v.Name, v.Kind)
				renderGroups(os.Stdout, v.Dims, v.Kind == "mean", v.Groups)
			}
		case len(group) > 0:
			if mean {
				renderGroups(os.Stdout, group, true, explore.GroupMean(wines, group...))
			} else {
				renderGroups(os.Stdout, group, false, explore.GroupCount(wines, group...))
			}
		default:
			if len(columns) == 0 {
				columns = defaultExploreColumns
			}
			if limit > 0 && len(wines) > limit {
				wines = wines[:limit]
			}
			renderWines(os.Stdout, columns, wines)
		}
		return nil
	},
}

func init() {
	exploreCmd.Flags().StringP("country", "c", "", "country table to explore (default from config)")
	exploreCmd.Flags().StringArray("filter", nil, "categorical filter col=a,b (repeatable)")
	exploreCmd.Flags().StringSlice("grape", nil, "grape terms, any of which must match")
	exploreCmd.Flags().String("alcohol", "", "alcohol range min:max (either side optional)")
	exploreCmd.Flags().String("vintage", "", "vintage range min:max (either side optional)")
	exploreCmd.Flags().StringSlice("group", nil, "group by columns")
	exploreCmd.Flags().Bool("mean", false, "with --group, show mean alcohol and vintage instead of counts")
	exploreCmd.Flags().Bool("describe", false, "summarize alcohol and vintage")
	exploreCmd.Flags().Bool("views", false, "show the configured dashboard views")
	exploreCmd.Flags().StringSlice("columns", nil, "columns to list")
	exploreCmd.Flags().Int("limit", 50, "max wines to list (0 = all)")
	rootCmd.AddCommand(exploreCmd)
}

// parseFilterFlags builds a Filter from the explore flags. Open range ends
// take the observed bound.
func parseFilterFlags(wines []model.Wine, filters, grapes []string, alcohol, vintage string) (explore.Filter, error) {
	f := explore.Filter{
		Categories: make(map[string][]string),
		Grapes:     grapes,
	}
	for _, spec := range filters {
		col, values, ok := strings.Cut(spec, "=")
		if !ok || strings.TrimSpace(col) == "" {
			return explore.Filter{}, eris.Errorf("invalid filter %q, want col=a,b", spec)
		}
		col = strings.TrimSpace(col)
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				f.Categories[col] = append(f.Categories[col], v)
			}
		}
	}

	fullAlcohol, fullVintage := explore.FullRange(wines)
	var err error
	if f.Alcohol, err = parseBounds("alcohol", alcohol, fullAlcohol); err != nil {
		return explore.Filter{}, err
	}
	if f.Vintage, err = parseBounds("vintage", vintage, fullVintage); err != nil {
		return explore.Filter{}, err
	}
	return f, nil
}

func parseBounds(name, spec string, full explore.Range) (*explore.Range, error) {
	if spec == "" {
		return nil, nil
	}
	lo, hi, ok := strings.Cut(spec, ":")
	if !ok {
		return nil, eris.Errorf("invalid %s range %q, want min:max", name, spec)
	}

	r := full
	if lo = strings.TrimSpace(lo); lo != "" {
		v, err := strconv.ParseFloat(lo, 64)
		if err != nil {
			return nil, eris.Errorf("invalid %s minimum %q", name, lo)
		}
		r.Min = v
	}
	if hi = strings.TrimSpace(hi); hi != "" {
		v, err := strconv.ParseFloat(hi, 64)
		if err != nil {
			return nil, eris.Errorf("invalid %s maximum %q", name, hi)
		}
		r.Max = v
	}
	return &r, nil
}

func newTable(out io.Writer) prettytable.Writer {
	t := prettytable.NewWriter()
	t.SetStyle(prettytable.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func renderWines(out io.Writer, columns []string, wines []model.Wine) {
	t := newTable(out)
	header := make(prettytable.Row, 0, len(columns))
	for _, c := range columns {
		header = append(header, c)
	}
	t.AppendHeader(header)

	for _, w := range wines {
		row := make(prettytable.Row, 0, len(columns))
		for _, c := range columns {
			row = append(row, w.Cell(c))
		}
		t.AppendRow(row)
	}
	t.Render()
}

func renderGroups(out io.Writer, dims []string, mean bool, groups []explore.Group) {
	t := newTable(out)
	header := make(prettytable.Row, 0, len(dims)+3)
	for _, d := range dims {
		header = append(header, d)
	}
	header = append(header, "Count")
	if mean {
		header = append(header, "Mean Alcohol", "Mean Vintage")
	}
	t.AppendHeader(header)

	for _, g := range groups {
		row := make(prettytable.Row, 0, len(header))
		for _, k := range g.Keys {
			row = append(row, k)
		}
		row = append(row, g.Count)
		if mean {
			row = append(row, formatMean(g.MeanAlcohol), formatMean(g.MeanVintage))
		}
		t.AppendRow(row)
	}
	t.Render()
}

func formatMean(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func renderSummary(out io.Writer, s explore.Summary) {
	t := newTable(out)
	t.AppendHeader(prettytable.Row{"", "count", "mean", "std", "min", "25%", "50%", "75%", "max"})
	for _, r := range []struct {
		name  string
		stats explore.Stats
	}{
		{model.ColumnAlcohol, s.Alcohol},
		{model.ColumnVintage, s.Vintage},
	} {
		st := r.stats
		t.AppendRow(prettytable.Row{
			r.name, st.Count,
			fmt.Sprintf("%.2f", st.Mean), fmt.Sprintf("%.2f", st.Std),
			fmt.Sprintf("%.2f", st.Min), fmt.Sprintf("%.2f", st.P25),
			fmt.Sprintf("%.2f", st.P50), fmt.Sprintf("%.2f", st.P75),
			fmt.Sprintf("%.2f", st.Max),
		})
	}
	t.Render()
}
