package charts

import (
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"stormplot/internal/spec"
)

// cycle is the default line color sequence, applied per axis.
var cycle = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// namedColors covers the CSS names that show up in notebooks beyond the
// basic set drawing.ColorFromKnown understands.
var namedColors = map[string]string{
	"orange":      "#ffa500",
	"darkorange":  "#ff8c00",
	"gray":        "#808080",
	"grey":        "#808080",
	"darkgray":    "#a9a9a9",
	"darkgrey":    "#a9a9a9",
	"lightgray":   "#d3d3d3",
	"lightgrey":   "#d3d3d3",
	"dimgray":     "#696969",
	"brown":       "#a52a2a",
	"pink":        "#ffc0cb",
	"cyan":        "#00ffff",
	"magenta":     "#ff00ff",
	"gold":        "#ffd700",
	"skyblue":     "#87ceeb",
	"steelblue":   "#4682b4",
	"royalblue":   "#4169e1",
	"darkblue":    "#00008b",
	"lightblue":   "#add8e6",
	"dodgerblue":  "#1e90ff",
	"darkred":     "#8b0000",
	"firebrick":   "#b22222",
	"crimson":     "#dc143c",
	"tomato":      "#ff6347",
	"coral":       "#ff7f50",
	"darkgreen":   "#006400",
	"forestgreen": "#228b22",
	"seagreen":    "#2e8b57",
	"limegreen":   "#32cd32",
	"violet":      "#ee82ee",
	"indigo":      "#4b0082",
	"darkviolet":  "#9400d3",
	"turquoise":   "#40e0d0",
	"tan":         "#d2b48c",
	"goldenrod":   "#daa520",
	"slategray":   "#708090",
}

// parseColor resolves hex, rgb()/rgba(), CSS names and tab: names. The
// zero color is returned for anything unknown.
func parseColor(raw string) drawing.Color {
	c := strings.ToLower(strings.TrimSpace(raw))
	c = strings.TrimPrefix(c, "tab:")
	if c == "" {
		return drawing.Color{}
	}
	if hex, ok := namedColors[c]; ok {
		c = hex
	}
	if hex, ok := strings.CutPrefix(c, "#"); ok {
		return fromHex(hex)
	}
	return drawing.ParseColor(c)
}

// fromHex accepts rgb, rrggbb and rrggbbaa digits.
func fromHex(hex string) drawing.Color {
	switch len(hex) {
	case 3, 6:
		return drawing.ColorFromHex(hex)
	case 8:
		alpha, err := strconv.ParseUint(hex[6:], 16, 8)
		if err != nil {
			return drawing.Color{}
		}
		return drawing.ColorFromHex(hex[:6]).WithAlpha(uint8(alpha))
	default:
		return drawing.Color{}
	}
}

// seriesColor picks the explicit color of a series or the next cycle color
// of its axis, with the series opacity applied.
func seriesColor(s spec.Series, index int) drawing.Color {
	color := parseColor(s.Color)
	if color.IsZero() {
		color = parseColor(cycle[index%len(cycle)])
	}
	alpha := s.Opacity()
	if alpha < 0 {
		alpha = 0
	}
	if alpha < 1 {
		color = color.WithAlpha(uint8(alpha * 255))
	}
	return color
}

// dashArray converts a line style into an SVG dash pattern scaled for
// lineWidth strokes.
func dashArray(style spec.LineStyle) []float64 {
	switch style {
	case spec.Dashed:
		return []float64{5.5, 2.4}
	case spec.DashDot:
		return []float64{9.6, 2.4, 1.5, 2.4}
	case spec.Dotted:
		return []float64{1.5, 2.5}
	default:
		return nil
	}
}
