// Package spec holds the figure description shared by the notebook miner
// and both renderers.
package spec

import (
	"path/filepath"
	"strings"
)

// Figure types
const (
	TypeSingle = "single"
	TypeGrid   = "grid"
)

// Series is one plotted line bound to a dataset column.
type Series struct {
	Column    string   `json:"column,omitempty"`
	Label     string   `json:"label,omitempty"`
	Color     string   `json:"color,omitempty"`
	LineStyle string   `json:"linestyle,omitempty"`
	Alpha     *float64 `json:"alpha,omitempty"`
	Secondary bool     `json:"secondary_y"`
}

// DisplayName is the legend label, falling back to the column name.
func (s Series) DisplayName() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Column
}

// Opacity returns Alpha or 1.
func (s Series) Opacity() float64 {
	if s.Alpha == nil {
		return 1.0
	}
	return *s.Alpha
}

// Subplot is one cell of a grid figure. Row and Col are 1-based.
type Subplot struct {
	Row                  int      `json:"row"`
	Col                  int      `json:"col"`
	Title                string   `json:"title,omitempty"`
	YLabel               string   `json:"ylabel,omitempty"`
	YLabelColor          string   `json:"ylabel_color,omitempty"`
	LegendLoc            string   `json:"legend_loc,omitempty"`
	Grid                 *bool    `json:"grid,omitempty"`
	Series               []Series `json:"series"`
	SecondaryYLabel      string   `json:"secondary_ylabel,omitempty"`
	SecondaryYLabelColor string   `json:"secondary_ylabel_color,omitempty"`
	SecondaryGrid        *bool    `json:"secondary_grid,omitempty"`
}

// HasSecondary reports whether any series plots on the right-hand axis.
func (s Subplot) HasSecondary() bool {
	return anySecondary(s.Series)
}

// Figure is the top-level unit of output. Single figures use the flat
// axis fields and Series; grid figures use Rows, Cols, ShareX and Subplots.
type Figure struct {
	Outfile     string `json:"outfile"`
	Title       string `json:"title,omitempty"`
	XLabel      string `json:"xlabel,omitempty"`
	XTickFormat string `json:"x_tickformat,omitempty"`
	Type        string `json:"type"`

	YLabel               string   `json:"ylabel,omitempty"`
	YLabelColor          string   `json:"ylabel_color,omitempty"`
	LegendLoc            string   `json:"legend_loc,omitempty"`
	Grid                 *bool    `json:"grid,omitempty"`
	Series               []Series `json:"series,omitempty"`
	SecondaryYLabel      string   `json:"secondary_ylabel,omitempty"`
	SecondaryYLabelColor string   `json:"secondary_ylabel_color,omitempty"`
	SecondaryGrid        *bool    `json:"secondary_grid,omitempty"`

	Rows     int       `json:"rows,omitempty"`
	Cols     int       `json:"cols,omitempty"`
	ShareX   bool      `json:"sharex,omitempty"`
	Subplots []Subplot `json:"subplots,omitempty"`
}

// IsGrid reports whether the figure should be laid out as a grid.
// A grid figure without subplots is treated as single.
func (f Figure) IsGrid() bool {
	return f.Type == TypeGrid && len(f.Subplots) > 0
}

// HasSecondary reports whether a single figure needs a right-hand axis.
func (f Figure) HasSecondary() bool {
	return anySecondary(f.Series)
}

// GridSize returns rows and cols, defaulting each to 1.
func (f Figure) GridSize() (int, int) {
	rows, cols := f.Rows, f.Cols
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	return rows, cols
}

// Stem is the output file name without directory or extension.
func (f Figure) Stem() string {
	base := filepath.Base(strings.TrimSpace(f.Outfile))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ColumnNames lists every column referenced by the figure, in plot order.
func (f Figure) ColumnNames() []string {
	var names []string
	seen := make(map[string]bool)
	add := func(series []Series) {
		for _, s := range series {
			if s.Column == "" || seen[s.Column] {
				continue
			}
			seen[s.Column] = true
			names = append(names, s.Column)
		}
	}
	add(f.Series)
	for _, sp := range f.Subplots {
		add(sp.Series)
	}
	return names
}

func anySecondary(series []Series) bool {
	for _, s := range series {
		if s.Secondary {
			return true
		}
	}
	return false
}

// BoolOr dereferences an optional flag.
func BoolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
