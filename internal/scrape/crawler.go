package scrape

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/wine-cli/internal/extract"
	"github.com/sells-group/wine-cli/internal/model"
	"github.com/sells-group/wine-cli/internal/resilience"
)

// CrawlerOptions configures the HTTP crawler.
type CrawlerOptions struct {
	BaseURL           string
	Country           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Selectors         extract.Selectors
	Transport         http.RoundTripper
}

// Crawler reads listing pages over plain HTTP and follows each wine link
// to its detail page.
type Crawler struct {
	opts    CrawlerOptions
	parser  *extract.PageParser
	limiter *rate.Limiter
}

// NewCrawler creates a crawler. The limiter is shared by every page the
// crawler fetches.
func NewCrawler(opts CrawlerOptions) *Crawler {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &Crawler{
		opts:    opts,
		parser:  extract.NewPageParser(opts.Selectors),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Name implements PageFetcher.
func (c *Crawler) Name() model.AcquisitionPath { return model.PathCrawler }

// PageURL implements PageFetcher.
func (c *Crawler) PageURL(page int) string {
	return ListingURL(c.opts.BaseURL, c.opts.Country, page)
}

func (c *Crawler) collector(ctx context.Context) *colly.Collector {
	opts := []colly.CollectorOption{}
	if c.opts.UserAgent != "" {
		opts = append(opts, colly.UserAgent(c.opts.UserAgent))
	}
	col := colly.NewCollector(opts...)
	col.SetRequestTimeout(c.opts.Timeout)
	if c.opts.Transport != nil {
		col.WithTransport(c.opts.Transport)
	}
	col.OnRequest(c.pace(ctx))
	return col
}

// pace holds every request until the shared limiter admits it and drops
// requests once ctx is done.
func (c *Crawler) pace(ctx context.Context) colly.RequestCallback {
	return func(r *colly.Request) {
		if err := c.limiter.Wait(ctx); err != nil {
			r.Abort()
		}
	}
}

// FetchPage implements PageFetcher. A listing that cannot be read fails the
// page; a wine page that cannot be read is logged and left out.
func (c *Crawler) FetchPage(ctx context.Context, page int) ([]*model.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "scrape: listing")
	}
	listingURL := c.PageURL(page)

	listing := c.collector(ctx)
	detail := listing.Clone()
	detail.OnRequest(c.pace(ctx))

	var links []string
	var records []*model.RawRecord
	var blockErr error
	var listingStatus int
	seen := make(map[string]struct{})

	listing.OnResponse(func(r *colly.Response) {
		if blocked, bt := DetectBlock(r.StatusCode, headerOf(r), r.Body); blocked {
			blockErr = resilience.NewTransientError(eris.Errorf("scrape: listing blocked (%s)", bt), r.StatusCode)
		}
	})
	listing.OnError(func(r *colly.Response, _ error) {
		listingStatus = r.StatusCode
		if blocked, bt := DetectBlock(r.StatusCode, headerOf(r), r.Body); blocked {
			blockErr = resilience.NewTransientError(eris.Errorf("scrape: listing blocked (%s)", bt), r.StatusCode)
		}
	})
	listing.OnHTML(DetailLinkSelector(c.opts.Country), func(e *colly.HTMLElement) {
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if link == "" {
			return
		}
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})

	detail.OnResponse(func(r *colly.Response) {
		rec, err := c.parser.Parse(bytes.NewReader(r.Body))
		if err != nil {
			zap.L().Warn("scrape: parse wine page", zap.String("url", r.Request.URL.String()), zap.Error(err))
			return
		}
		zap.L().Debug("scrape: wine page parsed",
			zap.String("url", r.Request.URL.String()),
			zap.String("title", rec.Title()),
			zap.Int("attributes", rec.Len()-1),
		)
		records = append(records, rec)
	})
	detail.OnError(func(r *colly.Response, err error) {
		zap.L().Warn("scrape: fetch wine page",
			zap.String("url", r.Request.URL.String()),
			zap.Int("status", r.StatusCode),
			zap.Error(err),
		)
	})

	if err := listing.Visit(listingURL); err != nil {
		if blockErr != nil {
			return nil, blockErr
		}
		return nil, classifyVisit(err, listingStatus, listingURL)
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "scrape: listing")
	}
	if blockErr != nil {
		return nil, blockErr
	}

	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "scrape: wine pages")
		}
		if err := detail.Visit(link); err != nil {
			zap.L().Debug("scrape: visit wine page", zap.String("url", link), zap.Error(err))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "scrape: wine pages")
	}

	zap.L().Info("scrape: listing crawled",
		zap.Int("page", page),
		zap.Int("links", len(links)),
		zap.Int("records", len(records)),
	)
	return records, nil
}

func headerOf(r *colly.Response) http.Header {
	if r.Headers == nil {
		return http.Header{}
	}
	return *r.Headers
}

// classifyVisit wraps a listing fetch error, marking it transient when
// the response status or the cause is retryable.
func classifyVisit(err error, status int, url string) error {
	wrapped := eris.Wrapf(err, "scrape: fetch listing %s", url)
	if resilience.IsTransient(err) {
		return wrapped
	}
	if resilience.IsTransientHTTPStatus(status) {
		return resilience.NewTransientError(wrapped, status)
	}
	return wrapped
}
