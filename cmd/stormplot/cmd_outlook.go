package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"stormplot/internal/fetchers"
)

var outlookFlags struct {
	url string
	out string
}

var outlookCmd = &cobra.Command{
	Use:   "outlook",
	Short: "Save the tropical weather outlook feed as a site data file",
	RunE:  runOutlook,
}

func init() {
	f := outlookCmd.Flags()
	f.StringVar(&outlookFlags.url, "url", "", "Feed URL (default OUTLOOK_FEED_URL)")
	f.StringVar(&outlookFlags.out, "out", "", "YAML output path (default STORMPLOT_OUTLOOK_FILE under the repo root)")
}

func runOutlook(cmd *cobra.Command, _ []string) error {
	feedURL := outlookFlags.url
	if feedURL == "" {
		feedURL = cfg.OutlookFeedURL
	}
	out := outlookFlags.out
	if out == "" {
		out = cfg.Path(cfg.OutlookDataFile)
	}

	items, err := fetchers.NewDataFetcher(cfg.HTTPTimeout).FetchOutlook(cmd.Context(), feedURL)
	if err != nil {
		return err
	}
	data, err := fetchers.MarshalOutlook(feedURL, items, time.Now())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(out), err)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("failed to write outlook: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d outlook items to %s\n", len(items), out)
	return nil
}
