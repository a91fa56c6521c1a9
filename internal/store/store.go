// Package store keeps the history of acquisition runs and the pages each
// run had to skip.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/wine-cli/internal/model"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Country      string          `json:"country,omitempty"`
	Status       model.RunStatus `json:"status,omitempty"`
	CreatedAfter time.Time       `json:"created_after,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for run history.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, country string, path model.AcquisitionPath, pages int) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Skipped pages
	RecordSkipped(ctx context.Context, runID string, pages []model.SkippedPage) error
	ListSkipped(ctx context.Context, runID string) ([]model.SkippedPage, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
