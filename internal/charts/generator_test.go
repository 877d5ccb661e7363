package charts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stormplot/internal/spec"
	"stormplot/internal/storage"
)

func TestNewChartGenerator(t *testing.T) {
	generator := NewChartGenerator(nil, "assets/plots/ian", nil)

	if generator == nil {
		t.Fatal("NewChartGenerator returned nil")
	}
	if generator.loc != time.UTC {
		t.Errorf("Expected UTC when no location is given, got %v", generator.loc)
	}
}

func TestOutputPathForcesSVG(t *testing.T) {
	generator := NewChartGenerator(nil, "assets/plots/ian", time.UTC)

	tests := []struct {
		outfile  string
		expected string
	}{
		{"ian_grid.png", "assets/plots/ian/ian_grid.svg"},
		{"figs/ian_grid.jpeg", "assets/plots/ian/ian_grid.svg"},
		{"ian_grid", "assets/plots/ian/ian_grid.svg"},
		{"ian_grid.svg", "assets/plots/ian/ian_grid.svg"},
	}
	for _, tt := range tests {
		if got := generator.OutputPath(spec.Figure{Outfile: tt.outfile}); got != tt.expected {
			t.Errorf("OutputPath(%q) = %q, want %q", tt.outfile, got, tt.expected)
		}
	}
}

func TestGenerateChartsWritesGridsOnly(t *testing.T) {
	base := t.TempDir()
	store, err := storage.NewLocalStorageClient(base)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	generator := NewChartGenerator(store, "assets/plots/ian", time.UTC)

	figures := []spec.Figure{
		{Outfile: "single.png", Type: spec.TypeSingle, Series: []spec.Series{{Column: "Wind"}}},
		gridFigure(),
		{Type: spec.TypeGrid, Rows: 1, Cols: 1, Subplots: []spec.Subplot{{Row: 1, Col: 1}}},
	}

	files, err := generator.GenerateCharts(context.Background(), figures, testDataset(t))
	if err != nil {
		t.Fatalf("GenerateCharts failed: %v", err)
	}
	if len(files) != 1 || files[0] != "assets/plots/ian/ian_grid.svg" {
		t.Fatalf("Expected only the grid chart, got %v", files)
	}

	data, err := os.ReadFile(filepath.Join(base, "assets", "plots", "ian", "ian_grid.svg"))
	if err != nil {
		t.Fatalf("Chart not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "<svg") {
		t.Error("Expected SVG content")
	}
	if _, err := os.Stat(filepath.Join(base, "assets", "plots", "ian", "single.svg")); !os.IsNotExist(err) {
		t.Error("Single figures should not produce static charts")
	}
}

func TestGenerateChartsHonorsCancellation(t *testing.T) {
	store, err := storage.NewLocalStorageClient(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewChartGenerator(store, "plots", time.UTC).GenerateCharts(ctx, []spec.Figure{gridFigure()}, testDataset(t))
	if err == nil {
		t.Error("Expected an error for a cancelled context")
	}
}
