// stormplot builds the charts and pages of the storm blog.
//
// Usage:
//
//	stormplot mine <notebook.ipynb|script.py> [--out spec.json]
//	stormplot interactive --csv <data.csv|url> --spec <spec.json> --out <dir>
//	stormplot static --csv <data.csv|url> --spec <spec.json> --out <dir>
//	stormplot embed --spec <spec.json> --storm-md <page.md> --public-dir <dir> [--preview out.html]
//	stormplot process (--slug <slug>... | --all) [--metrics-file <file>]
//	stormplot posts [--ai-summary]
//	stormplot preview --csv <data.csv|url> --out <preview.html>
//	stormplot outlook [--url <feed>] [--out <file.yml>]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"stormplot/internal/config"
	"stormplot/internal/dataset"
	"stormplot/internal/fetchers"
	"stormplot/internal/logger"
	"stormplot/internal/spec"
	"stormplot/internal/storage"
)

// cfg is loaded before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "stormplot",
	Short: "Chart and page pipeline for the storm blog",
	Long: "stormplot mines plotting code from analysis notebooks, renders interactive\n" +
		"and static charts from the resulting specs, and embeds them in storm pages.",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(cmd.Context())
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Configure(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(interactiveCmd)
	rootCmd.AddCommand(staticCmd)
	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(postsCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(outlookCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = config.GetVersion()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadDataset reads a local CSV/XLSX file or downloads one over HTTP.
func loadDataset(ctx context.Context, src string) (*dataset.Dataset, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return fetchers.NewDataFetcher(cfg.HTTPTimeout).FetchDataset(ctx, src)
	}
	return dataset.Load(src)
}

func loadInputs(ctx context.Context, csvPath, specPath string) ([]spec.Figure, *dataset.Dataset, error) {
	figures, err := spec.Load(specPath)
	if err != nil {
		return nil, nil, err
	}
	data, err := loadDataset(ctx, csvPath)
	if err != nil {
		return nil, nil, err
	}
	return figures, data, nil
}

// openStore returns the store for chart output and the directory to write
// under inside it. Local stores are rooted at dir itself.
func openStore(ctx context.Context, dir string) (storage.StorageClient, string, error) {
	if cfg.StorageMode == config.StorageGCS {
		store, err := storage.NewStorageClient(ctx, cfg, "")
		return store, strings.Trim(filepath.ToSlash(dir), "/"), err
	}
	store, err := storage.NewStorageClient(ctx, cfg, dir)
	return store, "", err
}
