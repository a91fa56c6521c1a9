package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/wine-cli/internal/config"
	"github.com/sells-group/wine-cli/internal/model"
	"github.com/sells-group/wine-cli/internal/resilience"
	"github.com/sells-group/wine-cli/internal/scrape"
	"github.com/sells-group/wine-cli/internal/store"
	"github.com/sells-group/wine-cli/internal/table"
)

func setTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev := cfg
	cfg = &config.Config{
		Countries: []config.CountryConfig{{Name: "France", PageLimit: 4}, {Name: "Italy", PageLimit: 2}},
		Scrape:    config.ScrapeConfig{DefaultCountry: "france", FeedDir: filepath.Join(dir, "scrapy"), Workers: 2},
		Table:     config.TableConfig{Dir: dir},
		Store:     config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(dir, "wine.db")},
	}
	t.Cleanup(func() { cfg = prev })
	return dir
}

func wineRecord(title, region string) *model.RawRecord {
	rec := model.NewRawRecord()
	rec.Set(model.TitleKey, model.Text(title))
	rec.Set("Region", model.Text(region))
	return rec
}

type stubFetcher struct {
	fail map[int]bool
}

func (s *stubFetcher) FetchPage(_ context.Context, page int) ([]*model.RawRecord, error) {
	if s.fail[page] {
		return nil, errors.New("layout changed")
	}
	return []*model.RawRecord{wineRecord("Wine", "Region")}, nil
}

func (s *stubFetcher) PageURL(page int) string { return fmt.Sprintf("https://example.com/page/%d", page) }

func (s *stubFetcher) Name() model.AcquisitionPath { return model.PathBrowser }

var _ scrape.PageFetcher = (*stubFetcher)(nil)

func TestResolveCountry(t *testing.T) {
	setTestConfig(t)

	cc, err := resolveCountry("ITALY")
	require.NoError(t, err)
	assert.Equal(t, "Italy", cc.Name)

	cc, err = resolveCountry("atlantis")
	require.NoError(t, err)
	assert.Equal(t, "France", cc.Name)

	cc, err = resolveCountry("")
	require.NoError(t, err)
	assert.Equal(t, "France", cc.Name)
}

func TestConvertFeed(t *testing.T) {
	dir := setTestConfig(t)
	ctx := context.Background()

	feed := feedPath("italy")
	require.NoError(t, writeFeed(feed, []*model.RawRecord{wineRecord("A", "Tuscany"), wineRecord("B", "Piedmont")}))

	out, n, err := convertFeed(ctx, feed, "italy", true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, filepath.Join(dir, "wine_data_italy.csv"), out)
	assert.FileExists(t, feed)

	tbl, err := table.NewDir(dir).Load(ctx, "italy")
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "Region"}, tbl.Columns)
	assert.Equal(t, "Piedmont", tbl.Rows[1]["Region"])

	_, _, err = convertFeed(ctx, feed, "italy", false)
	require.NoError(t, err)
	_, err = os.Stat(feed)
	assert.True(t, os.IsNotExist(err))
}

func TestConvertFeed_Missing(t *testing.T) {
	setTestConfig(t)
	_, _, err := convertFeed(context.Background(), feedPath("spain"), "spain", false)
	assert.Error(t, err)
}

func TestRunAcquisition(t *testing.T) {
	dir := setTestConfig(t)
	ctx := context.Background()

	cc, err := cfg.Country("france")
	require.NoError(t, err)
	rc := config.NewRunConfig(cfg, cc, config.RunOptions{})

	f := &stubFetcher{fail: map[int]bool{3: true}}
	policy := resilience.RetryConfig{MaxAttempts: 1}
	result, err := runAcquisition(ctx, rc, f, policy, func(_ context.Context, out scrape.Outcome) (string, error) {
		return saveTable(rc.Country(), out.Records)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Records)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, filepath.Join(dir, "wine_data_france.csv"), result.Output)

	st, err := initStore(ctx)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(ctx, store.RunFilter{Country: "france"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
	assert.Equal(t, model.PathBrowser, runs[0].Path)
	assert.Equal(t, 4, runs[0].Pages)

	skipped, err := st.ListSkipped(ctx, runs[0].ID)
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	assert.Equal(t, 3, skipped[0].Page)
	assert.Equal(t, "permanent", skipped[0].ErrorType)
}

func TestRunAcquisition_PersistFailure(t *testing.T) {
	setTestConfig(t)
	ctx := context.Background()

	cc, err := cfg.Country("italy")
	require.NoError(t, err)
	rc := config.NewRunConfig(cfg, cc, config.RunOptions{})

	_, err = runAcquisition(ctx, rc, &stubFetcher{}, resilience.RetryConfig{MaxAttempts: 1},
		func(context.Context, scrape.Outcome) (string, error) {
			return "", errors.New("disk full")
		})
	require.Error(t, err)

	st, err := initStore(ctx)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(ctx, store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
	require.NotNil(t, runs[0].Result)
	assert.Equal(t, "disk full", runs[0].Result.Error)
}
