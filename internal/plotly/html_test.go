package plotly

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stormplot/internal/config"
	"stormplot/internal/spec"
	"stormplot/internal/storage"
)

func TestRenderHTML(t *testing.T) {
	fig, err := Build(singleFigure(), loadStorm(t))
	require.NoError(t, err)

	page, err := RenderHTML(fig, PageMeta{Title: "Rain <and> Temp", PlotlyCDN: config.DefaultPlotlyCDN, Version: "1.2.3"})
	require.NoError(t, err)
	html := string(page)

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, `<script src="https://cdn.plot.ly/plotly-2.31.1.min.js"></script>`)
	assert.Contains(t, html, "<title>Rain &lt;and&gt; Temp</title>")
	assert.Contains(t, html, `content="stormplot 1.2.3"`)
	assert.Contains(t, html, "touch-action: none")
	assert.Contains(t, html, `"yaxis2"`)
	assert.Contains(t, html, `"hoverdistance":-1`)
	assert.Contains(t, html, `"role":"highlight"`)
	assert.Contains(t, html, `"modeBarButtonsToRemove":["resetScale2d","lasso2d","select2d"]`)
	assert.Contains(t, html, "requestAnimationFrame(flushHover)")
	assert.Contains(t, html, "const edgePad = 4;")
	assert.NotContains(t, html, "<extra>", "markup inside the figure JSON is escaped")
}

func TestRendererWritesPages(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorageClient(dir)
	require.NoError(t, err)

	r := NewRenderer(store, "plots/ian", "", "dev")
	figures := []spec.Figure{
		singleFigure(),
		gridFigure(),
		{Title: "no outfile"},
	}
	pages, err := r.Render(context.Background(), figures, loadStorm(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"plots/ian/ian_rain.html", "plots/ian/grid.html"}, pages)

	data, err := os.ReadFile(filepath.Join(dir, "plots", "ian", "grid.html"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"yaxis5"`)
	assert.Contains(t, string(data), config.DefaultPlotlyCDN)
	assert.Contains(t, string(data), "<title>Ian</title>")
}

func TestRendererStopsOnCancelledContext(t *testing.T) {
	store, err := storage.NewLocalStorageClient(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pages, err := NewRenderer(store, "", "", "").Render(ctx, []spec.Figure{singleFigure()}, loadStorm(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, pages)
}
