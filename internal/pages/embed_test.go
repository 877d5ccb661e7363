package pages

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stormplot/internal/spec"
)

func testFigures() []spec.Figure {
	return []spec.Figure{
		{Outfile: "ian_rain.png", Title: "Rain & Wind", Type: spec.TypeSingle},
		{Outfile: "plots/ian_grid.png", Type: spec.TypeGrid, Rows: 1, Cols: 2, Subplots: []spec.Subplot{{Row: 1, Col: 1}}},
		{Outfile: "empty_grid.png", Type: spec.TypeGrid},
		{Outfile: ""},
	}
}

func TestRenderDataBlock(t *testing.T) {
	block := RenderDataBlock(testFigures(), "assets/plots/2022-hurricane-ian", "example.com")

	assert.True(t, strings.HasPrefix(block, "<h2>Data</h2>\n<div class=\"storm-data\">\n"))
	assert.True(t, strings.HasSuffix(block, "</div>"))

	assert.Contains(t, block, `<summary class="storm-plot-summary">Rain &amp; Wind</summary>`)
	assert.Contains(t, block, `<iframe src="{{ '/assets/plots/2022-hurricane-ian/ian_rain.html' | relative_url }}" width="100%" height="520"`)

	assert.Contains(t, block, `<details class="storm-plot-group" open>`)
	assert.Contains(t, block, `<div class="storm-plot storm-multi-panels">`)
	assert.Contains(t, block, `<img src="{{ '/assets/plots/2022-hurricane-ian/ian_grid.svg' | relative_url }}" alt="Multi-panel plot for ian grid" loading="lazy">`)
	assert.Contains(t, block, `aria-hidden="true">example.com</span>`)

	// a grid without subplots is embedded as an interactive page
	assert.Contains(t, block, "empty_grid.html")
	assert.Equal(t, 3, strings.Count(block, "<details"))
}

func TestRenderDataBlockEmpty(t *testing.T) {
	assert.Equal(t, "<h2>Data</h2>\n<div class=\"storm-data\">\n</div>", RenderDataBlock(nil, "/x", ""))
	block := RenderDataBlock(testFigures()[1:2], "/x", "")
	assert.NotContains(t, block, "watermark")
}

func TestArtifactsMatchDataBlock(t *testing.T) {
	names := Artifacts(testFigures())
	assert.Equal(t, []string{"ian_rain.html", "ian_grid.svg", "empty_grid.html"}, names)
	block := RenderDataBlock(testFigures(), "/x", "")
	for _, name := range names {
		assert.Contains(t, block, "/x/"+name)
	}
}

func TestReplaceDataSectionIsIdempotent(t *testing.T) {
	page, err := NewStormPage("2022-hurricane-ian")
	require.NoError(t, err)
	block := RenderDataBlock(testFigures(), "assets/plots/2022-hurricane-ian", "")

	once := ReplaceDataSection(page, block)
	twice := ReplaceDataSection(once, block)
	assert.Equal(t, once, twice)
	assert.NotContains(t, once, DataPlaceholder)
	assert.Equal(t, 1, strings.Count(once, MarkerStart))
	assert.Contains(t, once, MarkerStart+"\n\n"+block+"\n"+MarkerEnd)

	other := ReplaceDataSection(twice, "<h2>Data</h2>")
	assert.NotContains(t, other, "storm-data")
}

func TestReplaceDataSectionAppendsMarkers(t *testing.T) {
	got := ReplaceDataSection("# Ian", "BLOCK")
	assert.Equal(t, "# Ian\n\n"+MarkerStart+"\n\nBLOCK\n"+MarkerEnd+"\n", got)
	assert.Equal(t, got, ReplaceDataSection(got, "BLOCK"))
}

func TestReplaceDataSectionStrayEndMarker(t *testing.T) {
	page := "# Ian\n" + MarkerEnd + "\nnotes\n"
	once := ReplaceDataSection(page, "BLOCK")
	twice := ReplaceDataSection(once, "BLOCK")
	assert.Equal(t, once, twice)
	assert.Equal(t, 1, strings.Count(twice, MarkerStart))
	assert.True(t, strings.HasPrefix(twice, page))
}

func TestUpdatePage(t *testing.T) {
	pagePath := filepath.Join(t.TempDir(), "ian.md")
	require.NoError(t, os.WriteFile(pagePath, []byte("# Ian\n\nDataComingSoon\n"), 0644))

	require.NoError(t, UpdatePage(pagePath, "BLOCK"))
	content, err := os.ReadFile(pagePath)
	require.NoError(t, err)
	assert.Equal(t, "# Ian\n\n\n"+MarkerStart+"\n\nBLOCK\n"+MarkerEnd+"\n", string(content))

	assert.Error(t, UpdatePage(filepath.Join(t.TempDir(), "missing.md"), "BLOCK"))
}

func TestRelativeURL(t *testing.T) {
	assert.Equal(t, "{{ '/assets/plots/a.svg' | relative_url }}", RelativeURL("/assets/plots", "a.svg"))
	assert.Equal(t, "{{ '/a.html' | relative_url }}", RelativeURL("", "a.html"))
}
