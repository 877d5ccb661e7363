package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stormplot/internal/pipeline"
	"stormplot/internal/storage"
)

var processFlags struct {
	slugs       []string
	all         bool
	metricsFile string
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the full chart pipeline for one or more storms",
	Long: "process mines each storm's notebook, renders its interactive and static\n" +
		"charts and embeds them in its storm page. A failing storm does not stop\n" +
		"the others, but the command exits non-zero when any storm failed.",
	RunE: runProcess,
}

func init() {
	f := processCmd.Flags()
	f.StringArrayVar(&processFlags.slugs, "slug", nil, "Storm slug to process (repeatable)")
	f.BoolVar(&processFlags.all, "all", false, "Process every storm under the data directory")
	f.StringVar(&processFlags.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics here (default METRICS_FILE)")
	processCmd.MarkFlagsMutuallyExclusive("slug", "all")
	processCmd.MarkFlagsOneRequired("slug", "all")
}

func runProcess(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if processFlags.metricsFile != "" {
		cfg.MetricsFile = processFlags.metricsFile
	}

	slugs := processFlags.slugs
	if processFlags.all {
		found, err := pipeline.DiscoverSlugs(cfg.Path(cfg.DataDir))
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No storms found under %s\n", cfg.Path(cfg.DataDir))
			return nil
		}
		slugs = found
	}

	store, err := storage.NewStorageClient(ctx, cfg, cfg.RepoRoot)
	if err != nil {
		return err
	}
	defer store.Close()

	runner := pipeline.NewRunner(cfg, store, nil)
	runner.SetOutput(cmd.OutOrStdout())
	_, err = runner.Run(ctx, slugs)
	return err
}
