package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"browse", "scrape", "convert", "serve", "explore", "runs", "config"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "wine-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestBrowseCommand_Flags(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{"country", "c", "france"},
		{"show", "s", "false"},
		{"pages", "p", "400"},
	}
	for _, tt := range tests {
		flag := browseCmd.Flags().Lookup(tt.name)
		require.NotNil(t, flag, "browse should have --%s flag", tt.name)
		assert.Equal(t, tt.shorthand, flag.Shorthand)
		assert.Equal(t, tt.def, flag.DefValue)
	}
}

func TestScrapeCommand_Flags(t *testing.T) {
	for _, name := range []string{"country", "pages", "workers", "feed", "convert", "keep"} {
		assert.NotNil(t, scrapeCmd.Flags().Lookup(name), "scrape should have --%s flag", name)
	}
	assert.Equal(t, "0", scrapeCmd.Flags().Lookup("pages").DefValue)
	assert.Equal(t, "true", scrapeCmd.Flags().Lookup("convert").DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show", "stats", "health"} {
		assert.True(t, names[name], "runs should have subcommand %q", name)
	}
}

func TestExploreCommand_Flags(t *testing.T) {
	for _, name := range []string{"country", "filter", "grape", "alcohol", "vintage", "group", "mean", "describe", "views"} {
		assert.NotNil(t, exploreCmd.Flags().Lookup(name), "explore should have --%s flag", name)
	}
}
