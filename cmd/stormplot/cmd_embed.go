package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stormplot/internal/pages"
	"stormplot/internal/spec"
)

var embedFlags struct {
	spec      string
	stormMD   string
	publicDir string
	preview   string
	baseURL   string
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Rewrite the data section of a storm page",
	RunE:  runEmbed,
}

func init() {
	f := embedCmd.Flags()
	f.StringVar(&embedFlags.spec, "spec", "", "Figure spec JSON (required)")
	f.StringVar(&embedFlags.stormMD, "storm-md", "", "Storm page to update (required)")
	f.StringVar(&embedFlags.publicDir, "public-dir", "", "Site directory holding the charts, e.g. assets/plots/<slug> (required)")
	f.StringVar(&embedFlags.preview, "preview", "", "Also write a standalone HTML preview of the page")
	f.StringVar(&embedFlags.baseURL, "base-url", "", "Base URL for links in the preview (default SITE_BASEURL)")

	_ = embedCmd.MarkFlagRequired("spec")
	_ = embedCmd.MarkFlagRequired("storm-md")
	_ = embedCmd.MarkFlagRequired("public-dir")
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	figures, err := spec.Load(embedFlags.spec)
	if err != nil {
		return err
	}
	block := pages.RenderDataBlock(figures, embedFlags.publicDir, cfg.SiteWatermark)
	if err := pages.UpdatePage(embedFlags.stormMD, block); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s with %d figures\n", embedFlags.stormMD, len(figures))

	if embedFlags.preview == "" {
		return nil
	}
	baseURL := embedFlags.baseURL
	if baseURL == "" {
		baseURL = cfg.SiteBaseURL
	}
	text, err := os.ReadFile(embedFlags.stormMD)
	if err != nil {
		return fmt.Errorf("failed to read page: %w", err)
	}
	html, err := pages.RenderPreview(string(text), baseURL)
	if err != nil {
		return err
	}
	if err := os.WriteFile(embedFlags.preview, html, 0644); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote preview %s\n", embedFlags.preview)
	return nil
}
