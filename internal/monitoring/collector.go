// Package monitoring watches the run ledger for failing or degraded
// acquisition runs.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/wine-cli/internal/model"
	"github.com/sells-group/wine-cli/internal/store"
)

// MetricsSnapshot holds a point-in-time view of acquisition health.
type MetricsSnapshot struct {
	// Run metrics (within lookback window).
	RunsTotal    int     `json:"runs_total"`
	RunsComplete int     `json:"runs_complete"`
	RunsFailed   int     `json:"runs_failed"`
	RunsRunning  int     `json:"runs_running"`
	FailRate     float64 `json:"fail_rate"`

	// Page metrics over finished runs.
	PagesRequested int     `json:"pages_requested"`
	PagesSkipped   int     `json:"pages_skipped"`
	SkipRate       float64 `json:"skip_rate"`
	Records        int     `json:"records"`

	// EmptyRuns lists completed runs that collected no records.
	EmptyRuns []string `json:"empty_runs,omitempty"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// RunLister is the part of store.Store the collector reads.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// Collector gathers metrics from the run ledger.
type Collector struct {
	store RunLister
}

// NewCollector creates a new metrics collector.
func NewCollector(st RunLister) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot of run metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)

	runs, err := c.store.ListRuns(ctx, store.RunFilter{
		CreatedAfter: cutoff,
		Limit:        10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap.RunsTotal = len(runs)
	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			snap.RunsComplete++
		case model.RunStatusFailed:
			snap.RunsFailed++
		default:
			snap.RunsRunning++
			continue
		}

		snap.PagesRequested += r.Pages
		if r.Result != nil {
			snap.PagesSkipped += r.Result.Skipped
			snap.Records += r.Result.Records
			if r.Status == model.RunStatusComplete && r.Result.Records == 0 {
				snap.EmptyRuns = append(snap.EmptyRuns, r.ID)
			}
		}
	}

	if finished := snap.RunsComplete + snap.RunsFailed; finished > 0 {
		snap.FailRate = float64(snap.RunsFailed) / float64(finished)
	}
	if snap.PagesRequested > 0 {
		snap.SkipRate = float64(snap.PagesSkipped) / float64(snap.PagesRequested)
	}

	return snap, nil
}
