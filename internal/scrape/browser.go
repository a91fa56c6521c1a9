package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wine-cli/internal/extract"
	"github.com/sells-group/wine-cli/internal/model"
)

// Page selectors used by the browser path.
const (
	TitleSelector = `[class*="WineInfo_wine-title__X8VR4"]`
	InfoSelector  = `[class*="WineInfo_wineInfo__OVnX8"]`
)

// Session is one browser tab. Implementations bound each element lookup
// by their own timeout.
type Session interface {
	Open(ctx context.Context, url string) error
	// ImageSources returns the src of every wine thumbnail whose src
	// contains prefix, in page order.
	ImageSources(ctx context.Context, prefix string) ([]string, error)
	// ClickImage clicks the thumbnail with the given src.
	ClickImage(ctx context.Context, src string) error
	Text(ctx context.Context, selector string) (string, error)
	Refresh(ctx context.Context) error
	Back(ctx context.Context) error
	Close() error
}

// Browser opens sessions.
type Browser interface {
	NewSession(ctx context.Context) (Session, error)
}

// BrowserOptions configures the browser path.
type BrowserOptions struct {
	BaseURL     string
	Country     string
	ImageSource string
}

// BrowserPath reads listing pages in a real browser: it clicks every wine
// thumbnail and splits the info panel text into attributes.
type BrowserPath struct {
	browser Browser
	opts    BrowserOptions
}

// NewBrowserPath creates a browser path fetcher.
func NewBrowserPath(b Browser, opts BrowserOptions) *BrowserPath {
	return &BrowserPath{browser: b, opts: opts}
}

// Name implements PageFetcher.
func (p *BrowserPath) Name() model.AcquisitionPath { return model.PathBrowser }

// PageURL implements PageFetcher.
func (p *BrowserPath) PageURL(page int) string {
	return ListingURL(p.opts.BaseURL, p.opts.Country, page)
}

// FetchPage implements PageFetcher. Any failure fails the whole page; the
// session is closed on every path.
func (p *BrowserPath) FetchPage(ctx context.Context, page int) ([]*model.RawRecord, error) {
	sess, err := p.browser.NewSession(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "browser: open session")
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			zap.L().Debug("browser: close session", zap.Int("page", page), zap.Error(cerr))
		}
	}()

	url := p.PageURL(page)
	if err := sess.Open(ctx, url); err != nil {
		return nil, eris.Wrapf(err, "browser: open %s", url)
	}

	srcs, err := sess.ImageSources(ctx, p.opts.ImageSource)
	if err != nil {
		return nil, eris.Wrap(err, "browser: list wines")
	}

	records := make([]*model.RawRecord, 0, len(srcs))
	for _, src := range srcs {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "browser: page")
		}
		rec, err := p.readWine(ctx, sess, src)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (p *BrowserPath) readWine(ctx context.Context, sess Session, src string) (*model.RawRecord, error) {
	if err := withRefresh(ctx, sess, func() error {
		return sess.ClickImage(ctx, src)
	}); err != nil {
		return nil, eris.Wrapf(err, "browser: open wine %s", src)
	}

	var title string
	if err := withRefresh(ctx, sess, func() error {
		var err error
		title, err = sess.Text(ctx, TitleSelector)
		return err
	}); err != nil {
		return nil, eris.Wrap(err, "browser: read title")
	}

	var block *model.RawRecord
	if err := withRefresh(ctx, sess, func() error {
		text, err := sess.Text(ctx, InfoSelector)
		if err != nil {
			return err
		}
		block, err = extract.ParseBlock(text)
		return err
	}); err != nil {
		return nil, eris.Wrap(err, "browser: read info")
	}

	rec := model.NewRawRecord()
	rec.Set(model.TitleKey, model.Text(strings.TrimSpace(title)))
	rec.Merge(block)

	if err := sess.Back(ctx); err != nil {
		return nil, eris.Wrap(err, "browser: back to listing")
	}
	return rec, nil
}

// withRefresh runs fn, and once more after a page refresh if it fails.
func withRefresh(ctx context.Context, sess Session, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	zap.L().Debug("browser: refreshing after failure", zap.Error(err))
	if rerr := sess.Refresh(ctx); rerr != nil {
		return eris.Wrap(rerr, "browser: refresh")
	}
	return fn()
}
