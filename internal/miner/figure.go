package miner

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"stormplot/internal/spec"
)

// secondarySuffix marks the twin axis sharing a cell with its base key.
const secondarySuffix = "__secondary"

var cellKeyPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\[(\d+),(\d+)\]$`)

// axisState accumulates everything plotted or configured on one axis.
type axisState struct {
	key         string
	row, col    int
	secondary   bool
	title       string
	xlabel      string
	ylabel      string
	ylabelColor string
	yaxisColor  string
	legendLoc   string
	grid        *bool
	series      []spec.Series
}

func (a *axisState) labelColor() string {
	if a.ylabelColor != "" {
		return a.ylabelColor
	}
	return a.yaxisColor
}

type figureState struct {
	rows, cols  int
	sharex      bool
	title       string
	xlabel      string
	xTickFormat string
}

// arrayShape describes an axes array returned by subplots. Arrays with a
// single row or column are one-dimensional, as numpy squeezes them.
type arrayShape struct {
	rows, cols int
	twoD       bool
}

func cellKey(name string, row, col int) string {
	return fmt.Sprintf("%s[%d,%d]", name, row, col)
}

// keyPosition returns the 1-based cell of an axis key. Keys that do not
// name a cell sit at (1, 1).
func keyPosition(key string) (int, int) {
	m := cellKeyPattern.FindStringSubmatch(strings.TrimSuffix(key, secondarySuffix))
	if m == nil {
		return 1, 1
	}
	r, _ := strconv.Atoi(m[2])
	c, _ := strconv.Atoi(m[3])
	return r + 1, c + 1
}

// axis returns the state for key, creating it on first use. A secondary
// axis always inherits the cell of its base, which is created first.
func (p *FigureParser) axis(key string) *axisState {
	if ax, ok := p.axes[key]; ok {
		return ax
	}
	ax := &axisState{key: key}
	if base, ok := strings.CutSuffix(key, secondarySuffix); ok {
		b := p.axis(base)
		ax.row, ax.col, ax.secondary = b.row, b.col, true
	} else {
		ax.row, ax.col = keyPosition(key)
	}
	p.axes[key] = ax
	p.order = append(p.order, key)
	return ax
}

// subplots pairs each primary axis with its twin, in creation order, and
// sorts the result by cell.
func (p *FigureParser) subplots() []spec.Subplot {
	var out []spec.Subplot
	for _, key := range p.order {
		primary := p.axes[key]
		if primary.secondary {
			continue
		}
		sp := spec.Subplot{
			Row:         primary.row,
			Col:         primary.col,
			Title:       primary.title,
			YLabel:      primary.ylabel,
			YLabelColor: primary.labelColor(),
			LegendLoc:   primary.legendLoc,
			Grid:        primary.grid,
			Series:      append([]spec.Series{}, primary.series...),
		}
		if secondary, ok := p.axes[key+secondarySuffix]; ok {
			sp.SecondaryYLabel = secondary.ylabel
			sp.SecondaryYLabelColor = secondary.labelColor()
			sp.SecondaryGrid = secondary.grid
			if sp.LegendLoc == "" {
				sp.LegendLoc = secondary.legendLoc
			}
			for _, s := range secondary.series {
				s.Secondary = true
				sp.Series = append(sp.Series, s)
			}
		}
		out = append(out, sp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// buildFigure turns the accumulated state into a figure. Axes that all share
// one cell produce a single figure; several cells produce a grid.
func (p *FigureParser) buildFigure(outfile string) spec.Figure {
	fig := p.ensureFigure()
	out := spec.Figure{
		Outfile:     outfile,
		Title:       fig.title,
		XLabel:      fig.xlabel,
		XTickFormat: fig.xTickFormat,
		Type:        spec.TypeSingle,
	}
	subplots := p.subplots()

	cells := make(map[[2]int]bool)
	for _, sp := range subplots {
		cells[[2]int{sp.Row, sp.Col}] = true
	}
	if len(cells) > 1 {
		out.Type = spec.TypeGrid
		out.Rows, out.Cols, out.ShareX = fig.rows, fig.cols, fig.sharex
		for _, sp := range subplots {
			out.Rows = max(out.Rows, sp.Row)
			out.Cols = max(out.Cols, sp.Col)
		}
		out.Subplots = subplots
		return out
	}
	if len(subplots) == 0 {
		return out
	}
	sp := subplots[0]
	if out.Title == "" {
		out.Title = sp.Title
	}
	out.YLabel = sp.YLabel
	out.YLabelColor = sp.YLabelColor
	out.LegendLoc = sp.LegendLoc
	out.Grid = sp.Grid
	out.Series = sp.Series
	out.SecondaryYLabel = sp.SecondaryYLabel
	out.SecondaryYLabelColor = sp.SecondaryYLabelColor
	out.SecondaryGrid = sp.SecondaryGrid
	return out
}
