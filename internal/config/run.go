package config

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RunConfig is the resolved, read-only configuration of one acquisition
// run. Build it with NewRunConfig.
type RunConfig struct {
	country      string
	pages        int
	workers      int
	headless     bool
	baseURL      string
	pageAttempts int
	pageWait     time.Duration
}

// RunOptions are the command-line overrides for a run. Zero values fall
// back to the configuration.
type RunOptions struct {
	Pages    int
	Workers  int
	Headless bool
}

// NewRunConfig resolves the run settings for a configured country.
func NewRunConfig(cfg *Config, country CountryConfig, opts RunOptions) RunConfig {
	pages := opts.Pages
	if pages <= 0 {
		pages = country.PageLimit
	}
	if pages <= 0 {
		pages = cfg.Scrape.Pages
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = cfg.Scrape.Workers
	}
	if workers <= 0 {
		workers = 6
	}

	wait := time.Duration(cfg.Retry.PageWaitSecs) * time.Second
	if wait <= 0 {
		wait = 2 * time.Minute
	}
	attempts := cfg.Retry.PageAttempts
	if attempts <= 0 {
		attempts = 6
	}

	return RunConfig{
		country:      strings.ToLower(strings.TrimSpace(country.Name)),
		pages:        pages,
		workers:      workers,
		headless:     opts.Headless,
		baseURL:      strings.TrimRight(cfg.Scrape.BaseURL, "/"),
		pageAttempts: attempts,
		pageWait:     wait,
	}
}

// Country returns the lowercase country slug used in URLs and file names.
func (r RunConfig) Country() string { return r.country }

// DisplayName returns the country in title case.
func (r RunConfig) DisplayName() string { return DisplayName(r.country) }

func (r RunConfig) Pages() int { return r.pages }
func (r RunConfig) Workers() int { return r.workers }
func (r RunConfig) Headless() bool { return r.headless }
func (r RunConfig) BaseURL() string { return r.baseURL }
func (r RunConfig) PageAttempts() int { return r.pageAttempts }
func (r RunConfig) PageWait() time.Duration { return r.pageWait }

// DisplayName title-cases a country slug ("new zealand" -> "New Zealand").
func DisplayName(country string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(country)))
}
