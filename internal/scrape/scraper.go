// Package scrape collects raw wine records from the review site, either
// with an HTTP crawler or by driving a real browser.
package scrape

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/wine-cli/internal/model"
)

// PageFetcher fetches every wine listed on one search results page.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) ([]*model.RawRecord, error)
	PageURL(page int) string
	Name() model.AcquisitionPath
}

// ListingURL returns the search results URL for a country and 1-based page.
func ListingURL(baseURL, country string, page int) string {
	return fmt.Sprintf("%s/wine-reviews/search/%s/page/%d/3",
		strings.TrimRight(baseURL, "/"), strings.ToLower(country), page)
}

// DetailLinkSelector matches links from a listing page to wine pages.
func DetailLinkSelector(country string) string {
	return fmt.Sprintf(`a[href*="/wine-reviews/%s/"]`, strings.ToLower(country))
}
