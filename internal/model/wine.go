package model

import (
	"strconv"
	"time"
)

// Well-known columns of the analysis table.
const (
	ColumnAlcohol         = "Alcohol"
	ColumnVintage         = "Vintage"
	ColumnCountry         = "Country"
	ColumnGrapes          = "Grapes"
	ColumnGrapeCategories = "Grape_Categories"
)

// Wine is one row of the normalized analysis table.
type Wine struct {
	Title           string            `json:"title"`
	Country         string            `json:"country"`
	Alcohol         float64           `json:"alcohol"`
	Vintage         *float64          `json:"vintage"` // nil when the scraped year could not be read
	Grapes          []string          `json:"grapes"`
	GrapeCategories string            `json:"grape_categories"`
	Fields          map[string]string `json:"fields"`
}

// Value returns the categorical value of a column. Numeric columns are
// not handled here; use the typed fields.
func (w Wine) Value(column string) string {
	switch column {
	case TitleKey:
		return w.Title
	case ColumnCountry:
		return w.Country
	case ColumnGrapeCategories:
		return w.GrapeCategories
	default:
		return w.Fields[column]
	}
}

// Cell renders any column as text, numeric columns included. An unset
// vintage renders as "".
func (w Wine) Cell(column string) string {
	switch column {
	case ColumnAlcohol:
		return strconv.FormatFloat(w.Alcohol, 'f', -1, 64)
	case ColumnVintage:
		if w.Vintage == nil {
			return ""
		}
		return strconv.FormatFloat(*w.Vintage, 'f', -1, 64)
	case ColumnGrapes:
		return FormatList(w.Grapes)
	default:
		return w.Value(column)
	}
}

// HasVintage reports whether the vintage was read successfully.
func (w Wine) HasVintage() bool { return w.Vintage != nil }

// Dataset is the result of loading and normalizing one country's table.
type Dataset struct {
	Country    string   `json:"country"`
	Columns    []string `json:"columns"`
	Wines      []Wine   `json:"wines"`
	Vocabulary []string `json:"vocabulary"`
}

// AcquisitionPath names the scraper that produced a run.
type AcquisitionPath string

const (
	PathCrawler AcquisitionPath = "crawler"
	PathBrowser AcquisitionPath = "browser"
)

// RunStatus represents the current state of an acquisition run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one acquisition run for a country.
type Run struct {
	ID        string          `json:"id"`
	Country   string          `json:"country"`
	Path      AcquisitionPath `json:"path"`
	Pages     int             `json:"pages"`
	Status    RunStatus       `json:"status"`
	Result    *RunResult      `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	Records int    `json:"records"`
	Skipped int    `json:"skipped"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

// SkippedPage records a listing page that produced no records after its
// retry budget ran out.
type SkippedPage struct {
	Page      int       `json:"page"`
	URL       string    `json:"url"`
	Error     string    `json:"error"`
	ErrorType string    `json:"error_type"` // "transient" or "permanent"
	Attempts  int       `json:"attempts"`
	FailedAt  time.Time `json:"failed_at"`
}
