package scrape

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/wine-cli/internal/model"
	"github.com/sells-group/wine-cli/internal/resilience"
)

type funcFetcher struct {
	fn func(ctx context.Context, page int) ([]*model.RawRecord, error)
}

func (f *funcFetcher) FetchPage(ctx context.Context, page int) ([]*model.RawRecord, error) {
	return f.fn(ctx, page)
}
func (f *funcFetcher) PageURL(page int) string { return fmt.Sprintf("https://example.com/page/%d/3", page) }
func (f *funcFetcher) Name() model.AcquisitionPath { return model.PathCrawler }

func titled(title string) *model.RawRecord {
	rec := model.NewRawRecord()
	rec.Set(model.TitleKey, model.Text(title))
	return rec
}

func fastPolicy(attempts int) resilience.RetryConfig {
	return resilience.FixedInterval(attempts, time.Millisecond)
}

func TestCollect_PageOrder(t *testing.T) {
	f := &funcFetcher{fn: func(_ context.Context, page int) ([]*model.RawRecord, error) {
		// Later pages finish first.
		time.Sleep(time.Duration(10-page) * time.Millisecond)
		return []*model.RawRecord{titled(fmt.Sprintf("p%d-a", page)), titled(fmt.Sprintf("p%d-b", page))}, nil
	}}

	out := Collect(context.Background(), 4, 4, fastPolicy(1), f)
	require.Len(t, out.Records, 8)
	var got []string
	for _, r := range out.Records {
		got = append(got, r.Title())
	}
	assert.Equal(t, []string{"p1-a", "p1-b", "p2-a", "p2-b", "p3-a", "p3-b", "p4-a", "p4-b"}, got)
	assert.Empty(t, out.Skipped)
}

func TestCollect_RespectsWorkerLimit(t *testing.T) {
	var inFlight, peak int32
	f := &funcFetcher{fn: func(_ context.Context, _ int) ([]*model.RawRecord, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil, nil
	}}

	Collect(context.Background(), 12, 3, fastPolicy(1), f)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestCollect_RetriesThenSkips(t *testing.T) {
	var mu sync.Mutex
	calls := map[int]int{}
	f := &funcFetcher{fn: func(_ context.Context, page int) ([]*model.RawRecord, error) {
		mu.Lock()
		calls[page]++
		n := calls[page]
		mu.Unlock()

		switch page {
		case 2:
			return nil, errors.New("info panel missing")
		case 3:
			if n < 3 {
				return nil, errors.New("flaky")
			}
		}
		return []*model.RawRecord{titled(fmt.Sprintf("p%d", page))}, nil
	}}

	out := Collect(context.Background(), 3, 2, fastPolicy(6), f)

	require.Len(t, out.Records, 2)
	assert.Equal(t, "p1", out.Records[0].Title())
	assert.Equal(t, "p3", out.Records[1].Title())

	require.Len(t, out.Skipped, 1)
	skip := out.Skipped[0]
	assert.Equal(t, 2, skip.Page)
	assert.Equal(t, 6, skip.Attempts)
	assert.Equal(t, "https://example.com/page/2/3", skip.URL)
	assert.Equal(t, "info panel missing", skip.Error)

	assert.Equal(t, 6, calls[2])
	assert.Equal(t, 3, calls[3])
}

func TestCollect_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &funcFetcher{fn: func(ctx context.Context, _ int) ([]*model.RawRecord, error) {
		return nil, ctx.Err()
	}}
	out := Collect(ctx, 3, 2, fastPolicy(6), f)
	assert.Empty(t, out.Records)
	assert.Len(t, out.Skipped, 3)
}

func TestCollect_NoPages(t *testing.T) {
	out := Collect(context.Background(), 0, 6, fastPolicy(1), &funcFetcher{})
	assert.Empty(t, out.Records)
	assert.Empty(t, out.Skipped)
}

func TestListingURL(t *testing.T) {
	assert.Equal(t, "https://www.decanter.com/wine-reviews/search/france/page/7/3",
		ListingURL("https://www.decanter.com/", "France", 7))
	assert.Equal(t, `a[href*="/wine-reviews/italy/"]`, DetailLinkSelector("Italy"))
}
