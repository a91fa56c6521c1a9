package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/wine-cli/internal/config"
	"github.com/sells-group/wine-cli/internal/resilience"
	"github.com/sells-group/wine-cli/internal/scrape"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Crawl reviews over HTTP",
	Long:  "Fetches every listing page, follows the wine links and parses each detail page into a JSON feed, then converts the feed into the country's table.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		country, _ := cmd.Flags().GetString("country")
		pages, _ := cmd.Flags().GetInt("pages")
		workers, _ := cmd.Flags().GetInt("workers")
		feed, _ := cmd.Flags().GetString("feed")
		convert, _ := cmd.Flags().GetBool("convert")
		keep, _ := cmd.Flags().GetBool("keep")

		cc, err := resolveCountry(country)
		if err != nil {
			return err
		}
		rc := config.NewRunConfig(cfg, cc, config.RunOptions{Pages: pages, Workers: workers})
		if feed == "" {
			feed = feedPath(rc.Country())
		}

		crawler := scrape.NewCrawler(scrape.CrawlerOptions{
			BaseURL:           rc.BaseURL(),
			Country:           rc.Country(),
			UserAgent:         cfg.Scrape.UserAgent,
			Timeout:           time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
			RequestsPerSecond: cfg.Scrape.RequestsPerSecond,
		})
		policy := resilience.FromRetryConfig(
			cfg.Retry.MaxAttempts,
			cfg.Retry.InitialBackoffMs,
			cfg.Retry.MaxBackoffMs,
			cfg.Retry.Multiplier,
			cfg.Retry.JitterFraction,
		)

		result, err := runAcquisition(ctx, rc, crawler, policy, func(ctx context.Context, out scrape.Outcome) (string, error) {
			if err := writeFeed(feed, out.Records); err != nil {
				return "", err
			}
			if !convert {
				return feed, nil
			}
			path, _, err := convertFeed(ctx, feed, rc.Country(), keep)
			return path, err
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "%s: %d wines, %d pages skipped -> %s\n",
			rc.DisplayName(), result.Records, result.Skipped, result.Output)
		return nil
	},
}

func init() {
	scrapeCmd.Flags().StringP("country", "c", "", "country to crawl (default from config)")
	scrapeCmd.Flags().IntP("pages", "p", 0, "number of listing pages (0 = configured page limit)")
	scrapeCmd.Flags().IntP("workers", "w", 0, "parallel pages (default from config)")
	scrapeCmd.Flags().String("feed", "", "JSON feed path (default scrape.feed_dir/decanter_<country>.json)")
	scrapeCmd.Flags().Bool("convert", true, "convert the feed into the country table")
	scrapeCmd.Flags().Bool("keep", false, "keep the feed after converting")
	rootCmd.AddCommand(scrapeCmd)
}
