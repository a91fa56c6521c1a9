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

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Scrape reviews by driving a browser",
	Long:  "Opens every listing page in Chromium, clicks each wine and reads its info panel. Pages that keep failing are skipped and recorded.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("browse"); err != nil {
			return err
		}

		country, _ := cmd.Flags().GetString("country")
		show, _ := cmd.Flags().GetBool("show")
		pages, _ := cmd.Flags().GetInt("pages")
		workers, _ := cmd.Flags().GetInt("workers")

		cc, err := resolveCountry(country)
		if err != nil {
			return err
		}
		rc := config.NewRunConfig(cfg, cc, config.RunOptions{
			Pages:    pages,
			Workers:  workers,
			Headless: !show,
		})

		browser := &scrape.RodBrowser{
			Headless:       rc.Headless(),
			Bin:            cfg.Scrape.BrowserBin,
			ElementTimeout: time.Duration(cfg.Scrape.ElementTimeoutSecs) * time.Second,
		}
		fetcher := scrape.NewBrowserPath(browser, scrape.BrowserOptions{
			BaseURL:     rc.BaseURL(),
			Country:     rc.Country(),
			ImageSource: cfg.Scrape.ImageSource,
		})
		policy := resilience.FromPageConfig(rc.PageAttempts(), int(rc.PageWait().Seconds()))

		result, err := runAcquisition(ctx, rc, fetcher, policy, func(_ context.Context, out scrape.Outcome) (string, error) {
			return saveTable(rc.Country(), out.Records)
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
	browseCmd.Flags().StringP("country", "c", "france", "country to scrape (case-insensitive)")
	browseCmd.Flags().BoolP("show", "s", false, "show the browser window")
	browseCmd.Flags().IntP("pages", "p", 400, "number of listing pages")
	browseCmd.Flags().IntP("workers", "w", 0, "parallel pages (default from config)")
	rootCmd.AddCommand(browseCmd)
}
