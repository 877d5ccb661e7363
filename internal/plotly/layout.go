package plotly

import (
	"encoding/json"
	"fmt"
	"strings"

	grob "github.com/MetalBlueberry/go-plotly/generated/v2.31.1/graph_objects"
	"github.com/MetalBlueberry/go-plotly/pkg/types"
)

// Default subplot spacing as fractions of the canvas.
const (
	HSpacing = 0.08
	VSpacing = 0.12
)

// Cell is a 1-based grid position.
type Cell struct {
	Row, Col int
}

// Domain is the normalized rectangle of one subplot.
type Domain struct {
	X [2]float64
	Y [2]float64
}

// ComputeDomains tiles the unit square into rows x cols cells separated by
// the given spacing. Row 1 is the top band.
func ComputeDomains(rows, cols int, hSpacing, vSpacing float64) map[Cell]Domain {
	width := (1.0 - hSpacing*float64(cols-1)) / float64(cols)
	height := (1.0 - vSpacing*float64(rows-1)) / float64(rows)

	domains := make(map[Cell]Domain, rows*cols)
	for r := 1; r <= rows; r++ {
		for c := 1; c <= cols; c++ {
			x0 := float64(c-1) * (width + hSpacing)
			y1 := 1.0 - float64(r-1)*(height+vSpacing)
			domains[Cell{r, c}] = Domain{
				X: [2]float64{x0, x0 + width},
				Y: [2]float64{y1 - height, y1},
			}
		}
	}
	return domains
}

// AxisName is the layout key of axis i: xaxis, xaxis2, ...
func AxisName(prefix string, i int) string {
	if i <= 1 {
		return prefix + "axis"
	}
	return fmt.Sprintf("%saxis%d", prefix, i)
}

// AxisRef is how traces refer to axis i: x, x2, ...
func AxisRef(prefix string, i int) string {
	if i <= 1 {
		return prefix
	}
	return fmt.Sprintf("%s%d", prefix, i)
}

// Layout is a Plotly layout. Plotly numbers axes and legends without limit
// while grob.Layout stops at xaxis6/yaxis6 and a single legend, so every
// axis and legend is kept by its layout key and merged in when encoding.
type Layout struct {
	grob.Layout
	XAxes   map[string]*grob.LayoutXaxis
	YAxes   map[string]*grob.LayoutYaxis
	Legends map[string]*grob.LayoutLegend
}

// NewLayout returns an empty layout.
func NewLayout() *Layout {
	return &Layout{
		XAxes:   map[string]*grob.LayoutXaxis{},
		YAxes:   map[string]*grob.LayoutYaxis{},
		Legends: map[string]*grob.LayoutLegend{},
	}
}

// MarshalJSON encodes the typed layout plus the keyed axes and legends as
// one object.
func (l *Layout) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(l.Layout)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	add := func(key string, v interface{}) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		fields[key] = raw
		return nil
	}
	for key, axis := range l.XAxes {
		if err := add(key, axis); err != nil {
			return nil, err
		}
	}
	for key, axis := range l.YAxes {
		if err := add(key, axis); err != nil {
			return nil, err
		}
	}
	for key, legend := range l.Legends {
		if err := add(key, legend); err != nil {
			return nil, err
		}
	}
	return json.Marshal(fields)
}

type legendAnchor struct {
	x, y   string
	dx, dy float64
}

var legendLocations = map[string]legendAnchor{
	"best":         {"right", "top", 0.01, 0.01},
	"upper right":  {"right", "top", 0.01, 0.01},
	"upper left":   {"left", "top", 0.01, 0.01},
	"lower right":  {"right", "bottom", 0.01, 0.01},
	"lower left":   {"left", "bottom", 0.01, 0.01},
	"upper center": {"center", "top", 0, 0.01},
	"lower center": {"center", "bottom", 0, 0.01},
	"center left":  {"left", "middle", 0.01, 0},
	"center right": {"right", "middle", 0.01, 0},
	"center":       {"center", "middle", 0, 0},
}

// LegendPosition anchors a matplotlib legend location inside a subplot
// domain. Unknown or empty locations return nil.
func LegendPosition(loc string, xDomain, yDomain [2]float64) *grob.LayoutLegend {
	anchor, ok := legendLocations[strings.ToLower(strings.TrimSpace(loc))]
	if !ok {
		return nil
	}

	x := (xDomain[0] + xDomain[1]) / 2
	switch anchor.x {
	case "left":
		x = xDomain[0] + anchor.dx
	case "right":
		x = xDomain[1] - anchor.dx
	}
	y := (yDomain[0] + yDomain[1]) / 2
	switch anchor.y {
	case "bottom":
		y = yDomain[0] + anchor.dy
	case "top":
		y = yDomain[1] - anchor.dy
	}

	return &grob.LayoutLegend{
		X:             types.N(x),
		Y:             types.N(y),
		Xanchor:       grob.LayoutLegendXanchor(anchor.x),
		Yanchor:       grob.LayoutLegendYanchor(anchor.y),
		Bgcolor:       "rgba(255,255,255,0.8)",
		Bordercolor:   "rgba(0,0,0,0)",
		Borderwidth:   types.N(0),
		Tracegroupgap: types.N(0),
	}
}
