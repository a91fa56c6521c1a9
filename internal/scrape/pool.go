package scrape

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/wine-cli/internal/model"
	"github.com/sells-group/wine-cli/internal/resilience"
)

// Outcome is the merged result of a collection run.
type Outcome struct {
	Records []*model.RawRecord
	Skipped []model.SkippedPage
}

// Collect fetches pages 1..pages with at most workers in flight. Each page
// is retried under policy; a page that still fails is skipped and
// reported. Records are returned in page order.
func Collect(ctx context.Context, pages, workers int, policy resilience.RetryConfig, f PageFetcher) Outcome {
	if pages <= 0 {
		return Outcome{}
	}
	if workers <= 0 {
		workers = 6
	}
	if policy.OnRetry == nil {
		policy.OnRetry = resilience.RetryLogger(string(f.Name()), "fetch_page")
	}

	records := make([][]*model.RawRecord, pages)
	skipped := make([]*model.SkippedPage, pages)

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i := 0; i < pages; i++ {
		page := i + 1
		g.Go(func() error {
			res := resilience.Run(ctx, policy, func(ctx context.Context) ([]*model.RawRecord, error) {
				return f.FetchPage(ctx, page)
			})
			if res.OK() {
				records[i] = res.Value
				zap.L().Debug("scrape: page done",
					zap.String("path", string(f.Name())),
					zap.Int("page", page),
					zap.Int("records", len(res.Value)),
					zap.Int("attempts", res.Attempts),
				)
				return nil
			}

			entry := resilience.Skipped(page, f.PageURL(page), res)
			skipped[i] = &entry
			zap.L().Warn("scrape: page skipped",
				zap.String("path", string(f.Name())),
				zap.Int("page", page),
				zap.String("status", res.Status.String()),
				zap.Int("attempts", res.Attempts),
				zap.Error(res.Err),
			)
			return nil
		})
	}
	_ = g.Wait()

	var out Outcome
	for i := range records {
		out.Records = append(out.Records, records[i]...)
		if skipped[i] != nil {
			out.Skipped = append(out.Skipped, *skipped[i])
		}
	}
	return out
}
