package scrape

import (
	"context"
	"strconv"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rotisserie/eris"
)

// RodBrowser launches a local Chromium for each session.
type RodBrowser struct {
	Headless       bool
	Bin            string
	ElementTimeout time.Duration
}

// NewSession implements Browser.
func (b *RodBrowser) NewSession(ctx context.Context) (Session, error) {
	l := launcher.New().Headless(b.Headless)
	if b.Bin != "" {
		l = l.Bin(b.Bin)
	}
	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		l.Cleanup()
		return nil, eris.Wrap(err, "rod: launch browser")
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, eris.Wrap(err, "rod: connect")
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, eris.Wrap(err, "rod: new page")
	}

	timeout := b.ElementTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &rodSession{launcher: l, browser: browser, page: page, timeout: timeout}, nil
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	timeout  time.Duration
}

// element waits up to the session timeout for selector. The returned
// element is bound to ctx, not to the wait deadline.
func (s *rodSession) element(ctx context.Context, selector string) (*rod.Element, error) {
	wait, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	el, err := s.page.Context(wait).Element(selector)
	if err != nil {
		return nil, err
	}
	return el.Context(ctx), nil
}

func (s *rodSession) Open(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return eris.Wrap(err, "rod: navigate")
	}
	return eris.Wrap(p.WaitLoad(), "rod: wait load")
}

func (s *rodSession) ImageSources(ctx context.Context, prefix string) ([]string, error) {
	if _, err := s.element(ctx, `img[src*=`+strconv.Quote(prefix)+`]`); err != nil {
		return nil, eris.Wrap(err, "rod: wait for wine images")
	}
	els, err := s.page.Context(ctx).Elements(`img[src*=` + strconv.Quote(prefix) + `]`)
	if err != nil {
		return nil, eris.Wrap(err, "rod: list wine images")
	}
	srcs := make([]string, 0, len(els))
	for _, el := range els {
		src, err := el.Attribute("src")
		if err != nil {
			return nil, eris.Wrap(err, "rod: read image src")
		}
		if src != nil {
			srcs = append(srcs, *src)
		}
	}
	return srcs, nil
}

func (s *rodSession) ClickImage(ctx context.Context, src string) error {
	el, err := s.element(ctx, `img[src=`+strconv.Quote(src)+`]`)
	if err != nil {
		return eris.Wrap(err, "rod: find image")
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return eris.Wrap(err, "rod: click image")
	}
	return nil
}

func (s *rodSession) Text(ctx context.Context, selector string) (string, error) {
	el, err := s.element(ctx, selector)
	if err != nil {
		return "", eris.Wrapf(err, "rod: find %s", selector)
	}
	text, err := el.Text()
	if err != nil {
		return "", eris.Wrapf(err, "rod: read %s", selector)
	}
	return text, nil
}

func (s *rodSession) Refresh(ctx context.Context) error {
	p := s.page.Context(ctx)
	if err := p.Reload(); err != nil {
		return eris.Wrap(err, "rod: reload")
	}
	return eris.Wrap(p.WaitLoad(), "rod: wait load")
}

func (s *rodSession) Back(ctx context.Context) error {
	p := s.page.Context(ctx)
	if err := p.NavigateBack(); err != nil {
		return eris.Wrap(err, "rod: back")
	}
	return eris.Wrap(p.WaitLoad(), "rod: wait load")
}

func (s *rodSession) Close() error {
	defer s.launcher.Cleanup()
	_ = s.page.Close()
	return s.browser.Close()
}
