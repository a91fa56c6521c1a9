package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wine-cli/internal/config"
	"github.com/sells-group/wine-cli/internal/model"
	"github.com/sells-group/wine-cli/internal/resilience"
	"github.com/sells-group/wine-cli/internal/scrape"
	"github.com/sells-group/wine-cli/internal/table"
)

// persistFunc stores the records of a finished collection and returns
// where they went.
type persistFunc func(ctx context.Context, out scrape.Outcome) (string, error)

// runAcquisition collects every page with f, persists the records and
// writes the run to the ledger. Skipped pages never fail the run.
func runAcquisition(ctx context.Context, rc config.RunConfig, f scrape.PageFetcher, policy resilience.RetryConfig, persist persistFunc) (*model.RunResult, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck

	run, err := st.CreateRun(ctx, rc.Country(), f.Name(), rc.Pages())
	if err != nil {
		return nil, eris.Wrap(err, "create run")
	}

	log := zap.L().With(
		zap.String("run_id", run.ID),
		zap.String("country", rc.Country()),
		zap.String("path", string(f.Name())),
	)
	log.Info("acquisition started",
		zap.Int("pages", rc.Pages()),
		zap.Int("workers", rc.Workers()),
	)

	out := scrape.Collect(ctx, rc.Pages(), rc.Workers(), policy, f)

	result := &model.RunResult{Records: len(out.Records), Skipped: len(out.Skipped)}
	status := model.RunStatusComplete
	output, persistErr := persist(ctx, out)
	if persistErr != nil {
		status = model.RunStatusFailed
		result.Error = persistErr.Error()
	}
	result.Output = output

	// The ledger is written even when the run was interrupted.
	bg := context.WithoutCancel(ctx)
	if err := st.RecordSkipped(bg, run.ID, out.Skipped); err != nil {
		log.Warn("failed to record skipped pages", zap.Error(err))
	}
	if err := st.CompleteRun(bg, run.ID, status, result); err != nil {
		log.Warn("failed to complete run", zap.Error(err))
	}

	log.Info("acquisition finished",
		zap.String("status", string(status)),
		zap.Int("records", result.Records),
		zap.Int("skipped", result.Skipped),
		zap.String("output", output),
	)
	return result, persistErr
}

// saveTable writes records to the country's persisted table.
func saveTable(country string, recs []*model.RawRecord) (string, error) {
	if len(recs) == 0 {
		zap.L().Warn("no records collected", zap.String("country", country))
	}
	return table.NewDir(cfg.Table.Dir).Save(country, table.FromRecords(recs))
}

// feedPath is the default JSON feed location for a country.
func feedPath(country string) string {
	return filepath.Join(cfg.Scrape.FeedDir, "decanter_"+country+".json")
}

// writeFeed writes records as a JSON feed, creating its directory.
func writeFeed(path string, recs []*model.RawRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "create feed dir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create feed %s", path)
	}
	if err := table.EncodeFeed(f, recs); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrapf(f.Close(), "close feed %s", path)
}

// convertFeed turns a JSON feed into the country's persisted table. The
// feed is removed afterwards unless keep is set.
func convertFeed(ctx context.Context, path, country string, keep bool) (string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, eris.Wrapf(err, "open feed %s", path)
	}
	recs, err := table.DecodeFeed(ctx, f)
	f.Close() //nolint:errcheck
	if err != nil {
		return "", 0, err
	}

	out, err := saveTable(country, recs)
	if err != nil {
		return "", 0, err
	}

	if !keep {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return out, len(recs), eris.Wrapf(err, "remove feed %s", path)
		}
	}
	return out, len(recs), nil
}
