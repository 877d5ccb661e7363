// Package miner derives figure specs from matplotlib plotting code in
// notebooks and scripts.
package miner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stormplot/internal/logger"
	"stormplot/internal/spec"
)

// MineCells mines notebook cells in order. Each cell gets a fresh parser,
// but dataframe names found in one cell stay known in the following ones.
func MineCells(cells []string) []spec.Figure {
	log := logger.WithComponent("miner")
	dataframes := map[string]bool{"df": true}
	figures := []spec.Figure{}
	for i, src := range cells {
		p := NewFigureParser(dataframes, log)
		if errs := p.ParseSource(src); len(errs) > 0 {
			log.Warn("skipped statements with syntax errors", map[string]interface{}{
				"cell":   i,
				"errors": len(errs),
				"first":  errs[0].Error(),
			})
		}
		figures = append(figures, p.Figures()...)
	}
	return figures
}

// MineSource mines a single Python source file.
func MineSource(src string) []spec.Figure {
	return MineCells([]string{src})
}

// MineNotebook mines the code cells of an .ipynb file.
func MineNotebook(path string) ([]spec.Figure, error) {
	cells, err := LoadNotebook(path)
	if err != nil {
		return nil, err
	}
	figures := MineCells(cells)
	logger.WithComponent("miner").Info("notebook mined", map[string]interface{}{
		"notebook": filepath.Base(path),
		"cells":    len(cells),
		"figures":  len(figures),
	})
	return figures, nil
}

// MineFile mines a notebook, or a plain Python script for any other extension.
func MineFile(path string) ([]spec.Figure, error) {
	if strings.EqualFold(filepath.Ext(path), ".ipynb") {
		return MineNotebook(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source %s: %w", path, err)
	}
	return MineSource(string(data)), nil
}
