// Package charts renders grid figures as static multi-panel SVG images.
package charts

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"stormplot/internal/dataset"
	"stormplot/internal/logger"
	"stormplot/internal/spec"
	"stormplot/internal/storage"
)

// ChartGenerator handles creation of static chart images
type ChartGenerator struct {
	store     storage.StorageClient
	outputDir string
	loc       *time.Location
	log       *logger.Logger
}

// NewChartGenerator creates a generator writing to outputDir through store.
// Timestamps are displayed in loc.
func NewChartGenerator(store storage.StorageClient, outputDir string, loc *time.Location) *ChartGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &ChartGenerator{
		store:     store,
		outputDir: outputDir,
		loc:       loc,
		log:       logger.WithComponent("static"),
	}
}

// OutputPath is where the SVG for a figure is written. The extension is
// always .svg whatever the notebook saved.
func (cg *ChartGenerator) OutputPath(fig spec.Figure) string {
	return path.Join(cg.outputDir, fig.Stem()+".svg")
}

// GenerateCharts renders every grid figure and returns the written paths.
// Single figures are skipped. A figure that fails to render aborts the run.
func (cg *ChartGenerator) GenerateCharts(ctx context.Context, figures []spec.Figure, data *dataset.Dataset) ([]string, error) {
	var chartFiles []string

	for _, fig := range figures {
		if err := ctx.Err(); err != nil {
			return chartFiles, err
		}
		if fig.Stem() == "" {
			cg.log.Warn("figure without outfile, skipped", map[string]interface{}{"title": fig.Title})
			continue
		}

		svg, err := RenderGrid(fig, data, cg.loc)
		if errors.Is(err, ErrNotGrid) {
			continue
		}
		if err != nil {
			return chartFiles, fmt.Errorf("failed to render %s: %w", fig.Outfile, err)
		}

		out := cg.OutputPath(fig)
		if err := cg.store.StoreFile(ctx, out, svg); err != nil {
			return chartFiles, fmt.Errorf("failed to write %s: %w", out, err)
		}
		cg.log.Info("static chart written", map[string]interface{}{
			"file":     out,
			"subplots": len(fig.Subplots),
		})
		chartFiles = append(chartFiles, out)
	}

	return chartFiles, nil
}
