package charts

import (
	"strings"

	"github.com/wcharczuk/go-chart/v2"
)

const (
	legendFontSize = 8.0
	legendMargin   = 6
)

// legendAt places go-chart's legend box at a matplotlib location inside
// the plot area. "best" uses the upper right corner, which is what
// matplotlib tries first.
func legendAt(c *chart.Chart, loc string) chart.Renderable {
	inner := chart.Legend(c, chart.Style{FontSize: legendFontSize})
	return func(r chart.Renderer, cb chart.Box, defaults chart.Style) {
		w, h := measureLegend(c, r, defaults)
		if w == 0 {
			return
		}
		vertical, horizontal := legendAnchor(loc)

		left := cb.Left + legendMargin
		switch horizontal {
		case "center":
			left = cb.Left + (cb.Width()-w)/2
		case "right":
			left = cb.Right - legendMargin - w
		}
		top := cb.Top + legendMargin
		switch vertical {
		case "center":
			top = cb.Top + (cb.Height()-h)/2
		case "lower":
			top = cb.Bottom - legendMargin - h
		}
		inner(r, chart.Box{Top: top, Left: left, Right: left + w, Bottom: top + h}, defaults)
	}
}

// legendAnchor splits a location into its vertical and horizontal parts.
func legendAnchor(loc string) (vertical, horizontal string) {
	switch strings.ToLower(strings.TrimSpace(loc)) {
	case "upper left":
		return "upper", "left"
	case "upper center":
		return "upper", "center"
	case "lower left":
		return "lower", "left"
	case "lower center":
		return "lower", "center"
	case "lower right":
		return "lower", "right"
	case "center left":
		return "center", "left"
	case "center right", "right":
		return "center", "right"
	case "center":
		return "center", "center"
	default:
		return "upper", "right"
	}
}

// measureLegend mirrors the box arithmetic of chart.Legend.
func measureLegend(c *chart.Chart, r chart.Renderer, defaults chart.Style) (int, int) {
	chart.Style{FontSize: legendFontSize}.InheritFrom(defaults).GetTextOptions().WriteToRenderer(r)

	var width, height, count int
	for _, s := range c.Series {
		name := s.GetName()
		if name == "" || s.GetStyle().Hidden {
			continue
		}
		tb := r.MeasureText(name)
		if count > 0 {
			height += chart.DefaultMinimumTickVerticalSpacing
		}
		height += tb.Height()
		width = max(width, tb.Width())
		count++
	}
	if count == 0 {
		return 0, 0
	}
	// padding 5+5, line gap 5, line length 25
	return width + 40, height + 10
}
