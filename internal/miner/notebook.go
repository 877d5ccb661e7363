package miner

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// cellSource accepts both notebook encodings of a cell's source: a list of
// lines or a single string.
type cellSource []string

func (s *cellSource) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = splitLines(text)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("cell source must be a string or a list of strings: %w", err)
	}
	*s = lines
	return nil
}

type notebookFile struct {
	Cells []struct {
		CellType string     `json:"cell_type"`
		Source   cellSource `json:"source"`
	} `json:"cells"`
}

// LoadNotebook reads an .ipynb file and returns the source of each code cell.
func LoadNotebook(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open notebook %s: %w", path, err)
	}
	defer f.Close()

	cells, err := DecodeNotebook(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cells, nil
}

// DecodeNotebook extracts code cell sources from notebook JSON. IPython
// magics (%) and shell escapes (!) are blanked so line numbers survive.
func DecodeNotebook(r io.Reader) ([]string, error) {
	var nb notebookFile
	if err := json.NewDecoder(r).Decode(&nb); err != nil {
		return nil, fmt.Errorf("failed to decode notebook: %w", err)
	}
	var cells []string
	for _, cell := range nb.Cells {
		if cell.CellType != "code" {
			continue
		}
		var b strings.Builder
		for _, line := range cell.Source {
			trimmed := strings.TrimLeft(line, " \t")
			if strings.HasPrefix(trimmed, "%") || strings.HasPrefix(trimmed, "!") {
				b.WriteString("\n")
				continue
			}
			b.WriteString(line)
		}
		cells = append(cells, b.String())
	}
	return cells, nil
}

// splitLines splits text after each newline, keeping the terminators.
func splitLines(text string) []string {
	var lines []string
	for text != "" {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i+1])
		text = text[i+1:]
	}
	return lines
}
