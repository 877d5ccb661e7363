package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stormplot/internal/charts"
	"stormplot/internal/plotly"
)

type renderFlags struct {
	csv  string
	spec string
	out  string
}

var (
	interactiveFlags renderFlags
	staticFlags      renderFlags
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Render every spec as a standalone Plotly HTML page",
	RunE:  runInteractive,
}

var staticCmd = &cobra.Command{
	Use:   "static",
	Short: "Render grid specs as multi-panel SVG images",
	RunE:  runStatic,
}

func init() {
	for _, c := range []struct {
		cmd   *cobra.Command
		flags *renderFlags
	}{{interactiveCmd, &interactiveFlags}, {staticCmd, &staticFlags}} {
		f := c.cmd.Flags()
		f.StringVar(&c.flags.csv, "csv", "", "Dataset path or URL, CSV or XLSX (required)")
		f.StringVar(&c.flags.spec, "spec", "", "Figure spec JSON (required)")
		f.StringVar(&c.flags.out, "out", "", "Output directory (required)")
		_ = c.cmd.MarkFlagRequired("csv")
		_ = c.cmd.MarkFlagRequired("spec")
		_ = c.cmd.MarkFlagRequired("out")
	}
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	figures, data, err := loadInputs(ctx, interactiveFlags.csv, interactiveFlags.spec)
	if err != nil {
		return err
	}
	store, dir, err := openStore(ctx, interactiveFlags.out)
	if err != nil {
		return err
	}
	defer store.Close()

	written, err := plotly.NewRenderer(store, dir, cfg.PlotlyCDN, rootCmd.Version).Render(ctx, figures, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d interactive charts to %s\n", len(written), interactiveFlags.out)
	return nil
}

func runStatic(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	figures, data, err := loadInputs(ctx, staticFlags.csv, staticFlags.spec)
	if err != nil {
		return err
	}
	store, dir, err := openStore(ctx, staticFlags.out)
	if err != nil {
		return err
	}
	defer store.Close()

	written, err := charts.NewChartGenerator(store, dir, cfg.Location()).GenerateCharts(ctx, figures, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d static charts to %s\n", len(written), staticFlags.out)
	return nil
}
