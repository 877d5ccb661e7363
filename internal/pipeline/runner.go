// Package pipeline runs the per-storm chart pipeline: mine the notebook,
// render interactive and static charts, and embed them in the storm page.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jonboulle/clockwork"

	"stormplot/internal/charts"
	"stormplot/internal/config"
	"stormplot/internal/dataset"
	"stormplot/internal/logger"
	"stormplot/internal/miner"
	"stormplot/internal/pages"
	"stormplot/internal/plotly"
	"stormplot/internal/spec"
	"stormplot/internal/storage"
)

// Status is the outcome of one storm.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result describes what processing a storm produced.
type Result struct {
	Slug     string
	Status   Status
	Figures  int
	Pages    []string
	Images   []string
	// Stale holds store paths in the plots directory that no figure produced.
	Stale    []string
	Duration time.Duration
	Err      error
}

// Runner processes storms found in the repository layout of cfg. Artifacts
// go through store, whose root is the repository root.
type Runner struct {
	cfg     *config.Config
	store   storage.StorageClient
	clock   clockwork.Clock
	metrics *Metrics
	version string
	out     io.Writer
	log     *logger.Logger
}

// NewRunner creates a runner. A nil clock uses the wall clock.
func NewRunner(cfg *config.Config, store storage.StorageClient, clock clockwork.Clock) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner{
		cfg:     cfg,
		store:   store,
		clock:   clock,
		metrics: NewMetrics(),
		version: config.GetVersion(),
		out:     os.Stdout,
		log:     logger.WithComponent("pipeline"),
	}
}

// SetOutput sets where the run summary is printed.
func (r *Runner) SetOutput(w io.Writer) {
	r.out = w
}

// Metrics exposes the run metrics.
func (r *Runner) Metrics() *Metrics {
	return r.metrics
}

// SpecPath is the store path of a storm's mined spec.
func (r *Runner) SpecPath(slug string) string {
	return path.Join(filepath.ToSlash(r.cfg.SpecsDir), slug+".json")
}

// PlotsPath is the store path, and site path, of a storm's charts.
func (r *Runner) PlotsPath(slug string) string {
	return path.Join(filepath.ToSlash(r.cfg.PlotsDir), slug)
}

// ProcessStorm runs every stage for one storm. Missing inputs are reported
// as ErrStormSkipped.
func (r *Runner) ProcessStorm(ctx context.Context, slug string) (Result, error) {
	start := r.clock.Now()
	res := Result{Slug: slug}
	r.log.Info("processing storm", map[string]interface{}{"slug": slug})

	pagePath, err := pages.EnsureStormPage(r.cfg.Path(r.cfg.StormsDir), slug)
	if err != nil {
		return res, err
	}
	dataPath, err := FindDataset(r.cfg.Path(r.cfg.DataDir, slug))
	if err != nil {
		return res, err
	}
	figures, err := r.loadFigures(ctx, slug)
	if err != nil {
		return res, err
	}
	res.Figures = len(figures)

	data, err := dataset.Load(dataPath)
	if err != nil {
		return res, fmt.Errorf("failed to load %s: %w", dataPath, err)
	}

	plots := r.PlotsPath(slug)
	if err := r.store.CreateDir(ctx, plots); err != nil {
		return res, fmt.Errorf("failed to create %s: %w", plots, err)
	}
	res.Pages, err = plotly.NewRenderer(r.store, plots, r.cfg.PlotlyCDN, r.version).Render(ctx, figures, data)
	if err != nil {
		return res, err
	}
	res.Images, err = charts.NewChartGenerator(r.store, plots, r.cfg.Location()).GenerateCharts(ctx, figures, data)
	if err != nil {
		return res, err
	}
	if err := r.checkArtifacts(ctx, plots, figures); err != nil {
		return res, err
	}
	res.Stale, err = r.staleArtifacts(ctx, plots, res.Pages, res.Images)
	if err != nil {
		return res, err
	}

	block := pages.RenderDataBlock(figures, plots, r.cfg.SiteWatermark)
	if err := pages.UpdatePage(pagePath, block); err != nil {
		return res, err
	}

	res.Duration = r.clock.Since(start)
	r.log.Info("storm completed", map[string]interface{}{
		"slug":     slug,
		"figures":  res.Figures,
		"pages":    len(res.Pages),
		"images":   len(res.Images),
		"stale":    len(res.Stale),
		"duration": res.Duration.String(),
	})
	return res, nil
}

// loadFigures mines the storm's notebook and stores the spec. Without a
// notebook, a spec mined on an earlier run is reused.
func (r *Runner) loadFigures(ctx context.Context, slug string) ([]spec.Figure, error) {
	specPath := r.SpecPath(slug)
	notebook, err := FindNotebook(r.cfg.Path(r.cfg.NotebooksDir, slug))
	if errors.Is(err, ErrStormSkipped) {
		exists, serr := r.store.FileExists(ctx, specPath)
		if serr != nil {
			return nil, serr
		}
		if !exists {
			return nil, err
		}
		data, serr := r.store.GetFile(ctx, specPath)
		if serr != nil {
			return nil, fmt.Errorf("failed to read spec %s: %w", specPath, serr)
		}
		r.log.Info("reusing mined spec", map[string]interface{}{"slug": slug, "spec": specPath})
		return spec.Parse(data)
	}
	if err != nil {
		return nil, err
	}

	figures, err := miner.MineNotebook(notebook)
	if err != nil {
		return nil, fmt.Errorf("failed to mine %s: %w", notebook, err)
	}
	specJSON, err := spec.Marshal(figures)
	if err != nil {
		return nil, err
	}
	if err := r.store.StoreFile(ctx, specPath, specJSON); err != nil {
		return nil, fmt.Errorf("failed to write spec: %w", err)
	}
	return figures, nil
}

// checkArtifacts fails when a file the page will link is absent from plots.
func (r *Runner) checkArtifacts(ctx context.Context, plots string, figures []spec.Figure) error {
	for _, name := range pages.Artifacts(figures) {
		p := path.Join(plots, name)
		exists, err := r.store.FileExists(ctx, p)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("chart %s was not written", p)
		}
	}
	return nil
}

// staleArtifacts lists files in plots left over from figures that no longer
// exist. They are reported, not removed.
func (r *Runner) staleArtifacts(ctx context.Context, plots string, produced ...[]string) ([]string, error) {
	keep := make(map[string]bool)
	for _, list := range produced {
		for _, p := range list {
			keep[p] = true
		}
	}
	entries, err := r.store.ListDir(ctx, plots, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", plots, err)
	}
	var stale []string
	for _, p := range entries {
		if keep[p] {
			continue
		}
		if ext := path.Ext(p); ext != ".html" && ext != ".svg" {
			continue
		}
		stale = append(stale, p)
	}
	if len(stale) > 0 {
		r.log.Warn("stale charts in plots directory", map[string]interface{}{"dir": plots, "files": stale})
	}
	return stale, nil
}

// Run processes each storm in turn. A failing storm does not stop the
// others; the returned error reports how many failed.
func (r *Runner) Run(ctx context.Context, slugs []string) ([]Result, error) {
	var results []Result
	failed := 0

	for _, slug := range slugs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		start := r.clock.Now()
		res, err := r.ProcessStorm(ctx, slug)
		res.Duration = r.clock.Since(start)
		switch {
		case err == nil:
			res.Status = StatusOK
		case errors.Is(err, ErrStormSkipped):
			res.Status, res.Err = StatusSkipped, err
			r.log.Warn("skipping storm", map[string]interface{}{"slug": slug, "reason": err.Error()})
			failed++
		default:
			res.Status, res.Err = StatusFailed, err
			r.log.Error("storm failed", err, map[string]interface{}{"slug": slug})
			failed++
		}
		r.metrics.Observe(res)
		results = append(results, res)
	}

	r.metrics.LastRun.Set(float64(r.clock.Now().Unix()))
	if r.cfg.MetricsFile != "" {
		if err := r.metrics.WriteTextfile(r.cfg.MetricsFile); err != nil {
			r.log.Error("failed to write metrics", err)
		}
	}
	if len(results) > 0 {
		r.WriteSummary(results)
	}

	if failed > 0 {
		return results, fmt.Errorf("%d of %d storms failed", failed, len(slugs))
	}
	return results, nil
}

// WriteSummary prints a table of results.
func (r *Runner) WriteSummary(results []Result) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Storm", "Status", "Figures", "Pages", "Images", "Duration", "Error"})
	for _, res := range results {
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		t.AppendRow(table.Row{
			res.Slug,
			res.Status,
			res.Figures,
			len(res.Pages),
			len(res.Images),
			res.Duration.Round(time.Millisecond),
			errText,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 7, WidthMax: 60}})
	t.Render()
}
