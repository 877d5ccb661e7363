package plotly

import (
	"context"
	"fmt"
	"path"

	"stormplot/internal/config"
	"stormplot/internal/dataset"
	"stormplot/internal/logger"
	"stormplot/internal/spec"
	"stormplot/internal/storage"
)

// Renderer writes one interactive page per figure.
type Renderer struct {
	store     storage.StorageClient
	outputDir string
	cdn       string
	version   string
	log       *logger.Logger
}

// NewRenderer creates a renderer writing to outputDir through store. An
// empty cdn uses config.DefaultPlotlyCDN.
func NewRenderer(store storage.StorageClient, outputDir, cdn, version string) *Renderer {
	if cdn == "" {
		cdn = config.DefaultPlotlyCDN
	}
	return &Renderer{
		store:     store,
		outputDir: outputDir,
		cdn:       cdn,
		version:   version,
		log:       logger.WithComponent("interactive"),
	}
}

// OutputPath is where the page for a figure is written.
func (r *Renderer) OutputPath(fig spec.Figure) string {
	return path.Join(r.outputDir, fig.Stem()+".html")
}

// Render builds and stores a page for every figure, single and grid alike,
// and returns the written paths.
func (r *Renderer) Render(ctx context.Context, figures []spec.Figure, data *dataset.Dataset) ([]string, error) {
	var pages []string

	for _, fig := range figures {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		if fig.Stem() == "" {
			r.log.Warn("figure without outfile, skipped", map[string]interface{}{"title": fig.Title})
			continue
		}

		doc, err := Build(fig, data)
		if err != nil {
			return pages, fmt.Errorf("failed to build %s: %w", fig.Outfile, err)
		}
		title := fig.Title
		if title == "" {
			title = fig.Stem()
		}
		html, err := RenderHTML(doc, PageMeta{Title: title, PlotlyCDN: r.cdn, Version: r.version})
		if err != nil {
			return pages, fmt.Errorf("failed to render %s: %w", fig.Outfile, err)
		}

		out := r.OutputPath(fig)
		if err := r.store.StoreFile(ctx, out, html); err != nil {
			return pages, fmt.Errorf("failed to write %s: %w", out, err)
		}
		r.log.Info("interactive chart written", map[string]interface{}{
			"file":   out,
			"traces": len(doc.DataTraces()),
		})
		pages = append(pages, out)
	}

	return pages, nil
}
