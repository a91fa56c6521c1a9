package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a JSON feed into a country table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		country, _ := cmd.Flags().GetString("country")
		feed, _ := cmd.Flags().GetString("feed")
		keep, _ := cmd.Flags().GetBool("keep")

		cc, err := resolveCountry(country)
		if err != nil {
			return err
		}
		name := strings.ToLower(cc.Name)
		if feed == "" {
			feed = feedPath(name)
		}

		out, n, err := convertFeed(cmd.Context(), feed, name, keep)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%d records -> %s\n", n, out)
		return nil
	},
}

func init() {
	convertCmd.Flags().StringP("country", "c", "", "country of the feed (default from config)")
	convertCmd.Flags().String("feed", "", "JSON feed path (default scrape.feed_dir/decanter_<country>.json)")
	convertCmd.Flags().Bool("keep", false, "keep the feed after converting")
	rootCmd.AddCommand(convertCmd)
}
