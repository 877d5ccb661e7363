package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrStormSkipped marks storms whose inputs could not be found.
var ErrStormSkipped = errors.New("storm skipped")

// DiscoverSlugs lists the storm directories under dataDir in sorted order.
// A missing directory yields no storms.
func DiscoverSlugs(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dataDir, err)
	}
	var slugs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			slugs = append(slugs, e.Name())
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}

// FindNotebook returns the first notebook in dir by name.
func FindNotebook(dir string) (string, error) {
	return firstMatch(dir, "notebook", "*.ipynb")
}

// FindDataset prefers a *Plot_Data.csv export, then any CSV, then a workbook.
func FindDataset(dir string) (string, error) {
	return firstMatch(dir, "dataset", "*Plot_Data.csv", "*.csv", "*.xlsx")
}

func firstMatch(dir, what string, patterns ...string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s directory not found: %s", ErrStormSkipped, what, dir)
	}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", fmt.Errorf("failed to search %s: %w", dir, err)
		}
		if len(matches) > 0 {
			sort.Strings(matches)
			return matches[0], nil
		}
	}
	return "", fmt.Errorf("%w: no %s found in %s", ErrStormSkipped, what, dir)
}
