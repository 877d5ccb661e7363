package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"stormplot/internal/preview"
)

var previewFlags struct {
	csv   string
	out   string
	title string
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Write a quick-look page with one chart per dataset column",
	RunE:  runPreview,
}

func init() {
	f := previewCmd.Flags()
	f.StringVar(&previewFlags.csv, "csv", "", "Dataset path or URL, CSV or XLSX (required)")
	f.StringVar(&previewFlags.out, "out", "", "HTML output path (required)")
	f.StringVar(&previewFlags.title, "title", "", "Page title (default dataset file name)")
	_ = previewCmd.MarkFlagRequired("csv")
	_ = previewCmd.MarkFlagRequired("out")
}

func runPreview(cmd *cobra.Command, _ []string) error {
	data, err := loadDataset(cmd.Context(), previewFlags.csv)
	if err != nil {
		return err
	}
	title := previewFlags.title
	if title == "" {
		base := filepath.Base(previewFlags.csv)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	html, err := preview.Render(data, title)
	if err != nil {
		return err
	}
	if err := os.WriteFile(previewFlags.out, html, 0644); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", previewFlags.out)
	return nil
}
