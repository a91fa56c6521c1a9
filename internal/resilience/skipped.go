package resilience

import (
	"time"

	"github.com/sells-group/wine-cli/internal/model"
)

// ClassifyError categorizes an error as "transient" or "permanent".
func ClassifyError(err error) string {
	if IsTransient(err) {
		return "transient"
	}
	return "permanent"
}

// Skipped builds the ledger entry for a page whose retries ran out.
func Skipped[T any](page int, url string, res Result[T]) model.SkippedPage {
	entry := model.SkippedPage{
		Page:     page,
		URL:      url,
		Attempts: res.Attempts,
		FailedAt: time.Now().UTC(),
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
		entry.ErrorType = ClassifyError(res.Err)
	}
	return entry
}
