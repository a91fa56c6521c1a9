package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/wine-cli/internal/model"
	"github.com/sells-group/wine-cli/internal/monitoring"
	"github.com/sells-group/wine-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect acquisition run history",
	Long:  "Commands for listing, viewing, and summarizing scrape and browse runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List acquisition runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		country, _ := cmd.Flags().GetString("country")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status:  model.RunStatus(status),
			Country: country,
			Limit:   limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

// runDetail is a run together with the pages it skipped.
type runDetail struct {
	*model.Run
	SkippedPages []model.SkippedPage `json:"skipped_pages"`
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		skipped, err := st.ListSkipped(ctx, run.ID)
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		if skipped == nil {
			skipped = []model.SkippedPage{}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runDetail{Run: run, SkippedPages: skipped})
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		country, _ := cmd.Flags().GetString("country")
		runs, err := st.ListRuns(ctx, store.RunFilter{Country: country, Limit: 10000})
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		formatRunStats(os.Stdout, computeRunStats(runs))
		return nil
	},
}

// -- runs health --

var runsHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check recent runs against the monitoring thresholds",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		lookback, _ := cmd.Flags().GetInt("lookback")
		mcfg := cfg.Monitoring
		if lookback > 0 {
			mcfg.LookbackWindowHours = lookback
		}

		snap, err := monitoring.NewCollector(st).Collect(ctx, mcfg.LookbackWindowHours)
		if err != nil {
			return eris.Wrap(err, "runs health")
		}
		alerts := monitoring.NewAlerter(mcfg).Evaluate(snap)
		formatHealth(os.Stdout, snap, alerts)
		return nil
	},
}

func init() {
	runsHealthCmd.Flags().Int("lookback", 0, "lookback window in hours (default from config)")
	runsListCmd.Flags().String("status", "", "filter by run status (running, complete, failed)")
	runsListCmd.Flags().String("country", "", "filter by country")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsStatsCmd.Flags().String("country", "", "filter by country")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	runsCmd.AddCommand(runsHealthCmd)
	rootCmd.AddCommand(runsCmd)
}

// runStats holds aggregate statistics computed from a set of runs.
type runStats struct {
	Total        int
	Complete     int
	Failed       int
	Running      int
	Records      int
	SkippedPages int
	AvgDurSecs   float64
}

// computeRunStats computes aggregate statistics from a list of runs.
func computeRunStats(runs []model.Run) runStats {
	var s runStats
	s.Total = len(runs)

	var totalDur time.Duration
	var durCount int

	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			s.Complete++
			totalDur += r.UpdatedAt.Sub(r.CreatedAt)
			durCount++
		case model.RunStatusFailed:
			s.Failed++
		default:
			s.Running++
		}
		if r.Result != nil {
			s.Records += r.Result.Records
			s.SkippedPages += r.Result.Skipped
		}
	}

	if durCount > 0 {
		s.AvgDurSecs = totalDur.Seconds() / float64(durCount)
	}
	return s
}

// formatRunsList writes a table of runs to out.
func formatRunsList(out io.Writer, runs []model.Run) {
	t := newTable(out)
	t.AppendHeader(prettytable.Row{"ID", "COUNTRY", "PATH", "PAGES", "STATUS", "RECORDS", "SKIPPED", "CREATED", "DURATION"})

	for _, r := range runs {
		records, skipped := "", ""
		if r.Result != nil {
			records = fmt.Sprint(r.Result.Records)
			skipped = fmt.Sprint(r.Result.Skipped)
		}
		t.AppendRow(prettytable.Row{
			truncateID(r.ID),
			r.Country,
			r.Path,
			r.Pages,
			r.Status,
			records,
			skipped,
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String(),
		})
	}
	t.Render()
}

// formatRunStats writes aggregate stats to out.
func formatRunStats(out io.Writer, s runStats) {
	t := newTable(out)
	t.AppendRows([]prettytable.Row{
		{"Total runs", s.Total},
		{"Complete", s.Complete},
		{"Failed", s.Failed},
		{"Running", s.Running},
		{"Records", s.Records},
		{"Skipped pages", s.SkippedPages},
	})
	if s.AvgDurSecs > 0 {
		t.AppendRow(prettytable.Row{"Avg duration", fmt.Sprintf("%.1fs", s.AvgDurSecs)})
	}
	t.Render()
}

// formatHealth writes a health snapshot and its alerts to out.
func formatHealth(out io.Writer, snap *monitoring.MetricsSnapshot, alerts []monitoring.Alert) {
	t := newTable(out)
	t.AppendRows([]prettytable.Row{
		{"Window", fmt.Sprintf("%dh", snap.LookbackHours)},
		{"Runs", snap.RunsTotal},
		{"Failure rate", fmt.Sprintf("%.1f%%", snap.FailRate*100)},
		{"Pages skipped", fmt.Sprintf("%d / %d", snap.PagesSkipped, snap.PagesRequested)},
		{"Skip rate", fmt.Sprintf("%.1f%%", snap.SkipRate*100)},
		{"Records", snap.Records},
	})
	t.Render()

	if len(alerts) == 0 {
		fmt.Fprintln(out, "OK: no alerts")
		return
	}
	for _, a := range alerts {
		fmt.Fprintf(out, "[%s] %s: %s\n", a.Severity, a.Type, a.Message)
	}
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
