// Package plotly builds interactive Plotly chart documents from figure specs
// and writes them as standalone HTML pages with a highlight overlay.
package plotly

import (
	"fmt"
	"strings"

	grob "github.com/MetalBlueberry/go-plotly/generated/v2.31.1/graph_objects"
	"github.com/MetalBlueberry/go-plotly/pkg/types"

	"stormplot/internal/dataset"
	"stormplot/internal/hover"
	"stormplot/internal/spec"
)

// Trace roles stored in trace meta.
const (
	RoleData      = "data"
	RoleHighlight = "highlight"
)

// DefaultColorway is the color sequence Plotly gives traces without one.
var DefaultColorway = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// TraceMeta tags a trace with its role. For highlight traces Source is the
// index of the data trace they follow.
type TraceMeta struct {
	Role   string `json:"role"`
	Source int    `json:"source"`
}

// Figure is a complete chart document.
type Figure struct {
	Data   []*grob.Scatter
	Layout *Layout
	Config *grob.Config
}

// Meta returns the role tag of a trace built by this package.
func Meta(t *grob.Scatter) (TraceMeta, bool) {
	if t == nil || t.Meta == nil || t.Meta.Value == nil {
		return TraceMeta{}, false
	}
	meta, ok := (*t.Meta.Value).(TraceMeta)
	return meta, ok
}

// DataTraces returns the plotted series without their highlight markers.
func (f *Figure) DataTraces() []*grob.Scatter {
	return f.tracesWithRole(RoleData)
}

// HighlightTraces returns the invisible marker traces.
func (f *Figure) HighlightTraces() []*grob.Scatter {
	return f.tracesWithRole(RoleHighlight)
}

func (f *Figure) tracesWithRole(role string) []*grob.Scatter {
	var out []*grob.Scatter
	for _, t := range f.Data {
		if meta, ok := Meta(t); ok && meta.Role == role {
			out = append(out, t)
		}
	}
	return out
}

// DashFor maps a matplotlib line style to a Plotly dash name.
func DashFor(style string) string {
	switch spec.ParseLineStyle(style) {
	case spec.Dashed:
		return "dash"
	case spec.DashDot:
		return "dashdot"
	case spec.Dotted:
		return "dot"
	default:
		return "solid"
	}
}

func defaultConfig() *grob.Config {
	return &grob.Config{
		Responsive:             types.True,
		Displaylogo:            types.False,
		ModeBarButtonsToRemove: []string{"resetScale2d", "lasso2d", "select2d"},
	}
}


// Build turns a figure spec into a chart document. Series whose column is
// not in the dataset are dropped.
func Build(fig spec.Figure, data *dataset.Dataset) (*Figure, error) {
	if data == nil {
		return nil, fmt.Errorf("no dataset for %s", fig.Outfile)
	}
	b := &builder{fig: fig, data: data, layout: baseLayout(fig)}
	if fig.IsGrid() {
		b.buildGrid()
	} else {
		b.buildSingle()
	}
	b.addHighlights()
	return &Figure{Data: b.traces, Layout: b.layout, Config: defaultConfig()}, nil
}

type builder struct {
	fig    spec.Figure
	data   *dataset.Dataset
	layout *Layout
	traces []*grob.Scatter
}

func baseLayout(fig spec.Figure) *Layout {
	top := 40.0
	if fig.Title != "" {
		top = 60
	}
	bottom := 60.0
	if fig.IsGrid() {
		bottom = 80
	}
	layout := NewLayout()
	layout.Hovermode = grob.LayoutHovermodeXUnified
	layout.Hoverdistance = types.I(-1)
	layout.Spikedistance = types.I(-1)
	layout.PlotBgcolor = "#ffffff"
	layout.PaperBgcolor = "#ffffff"
	layout.Margin = &grob.LayoutMargin{L: types.N(60), R: types.N(60), T: types.N(top), B: types.N(bottom)}
	layout.Font = &grob.LayoutFont{Family: "Arial", Size: types.N(12)}
	if fig.Title != "" {
		layout.Title = &grob.LayoutTitle{Text: types.S(fig.Title)}
	}
	return layout
}

func yAxis(label, color string, grid *bool) *grob.LayoutYaxis {
	axis := &grob.LayoutYaxis{
		Showline:       types.True,
		Linecolor:      "black",
		Ticks:          grob.LayoutYaxisTicksOutside,
		Showgrid:       types.B(spec.BoolOr(grid, true)),
		Gridcolor:      "#d3d3d3",
		Zeroline:       types.False,
		Mirror:         grob.LayoutYaxisMirrorFalse,
		Showspikes:     types.True,
		Spikemode:      grob.LayoutYaxisSpikemodeAcross,
		Spikethickness: types.N(1),
		Spikedash:      "solid",
		Spikesnap:      grob.LayoutYaxisSpikesnapHoveredData,
	}
	if label != "" {
		axis.Title = &grob.LayoutYaxisTitle{Text: types.S(label)}
		if color != "" {
			axis.Title.Font = &grob.LayoutYaxisTitleFont{Color: types.C(color)}
		}
	}
	if color != "" {
		axis.Linecolor = types.C(color)
		axis.Tickfont = &grob.LayoutYaxisTickfont{Color: types.C(color)}
	}
	return axis
}

func secondaryAxis(label, color string, grid *bool, overlaying string) *grob.LayoutYaxis {
	axis := yAxis(label, color, grid)
	axis.Overlaying = grob.LayoutYaxisOverlaying(overlaying)
	axis.Side = grob.LayoutYaxisSideRight
	axis.Gridcolor = "rgba(0,0,0,0)"
	return axis
}

func xAxis(label, tickformat string) *grob.LayoutXaxis {
	axis := &grob.LayoutXaxis{
		Showline:       types.True,
		Linecolor:      "black",
		Ticks:          grob.LayoutXaxisTicksOutside,
		Showgrid:       types.True,
		Gridcolor:      "#d3d3d3",
		Zeroline:       types.False,
		Mirror:         grob.LayoutXaxisMirrorFalse,
		Showspikes:     types.True,
		Spikemode:      grob.LayoutXaxisSpikemodeAcross,
		Spikethickness: types.N(1),
		Spikedash:      "solid",
		Spikesnap:      grob.LayoutXaxisSpikesnapHoveredData,
		Tickformat:     types.S(tickformat),
	}
	if label != "" {
		axis.Title = &grob.LayoutXaxisTitle{Text: types.S(label)}
	}
	return axis
}

func (b *builder) buildSingle() {
	fig := b.fig
	legend := ""
	if pos := LegendPosition(fig.LegendLoc, [2]float64{0, 1}, [2]float64{0, 1}); pos != nil {
		legend = "legend"
		b.layout.Legends[legend] = pos
	}

	for _, s := range fig.Series {
		axisLabel := fig.YLabel
		yref := ""
		if s.Secondary {
			axisLabel = fig.SecondaryYLabel
			yref = "y2"
		}
		trace, ok := b.seriesTrace(s, axisLabel)
		if !ok {
			continue
		}
		trace.Yaxis = types.S(yref)
		trace.Legend = types.S(legend)
		b.traces = append(b.traces, trace)
	}

	b.layout.YAxes["yaxis"] = yAxis(fig.YLabel, fig.YLabelColor, fig.Grid)
	if fig.HasSecondary() {
		b.layout.YAxes["yaxis2"] = secondaryAxis(fig.SecondaryYLabel, fig.SecondaryYLabelColor, fig.SecondaryGrid, "y")
	}
	xaxis := xAxis(fig.XLabel, fig.XTickFormat)
	xaxis.Rangeslider = &grob.LayoutXaxisRangeslider{Visible: types.True, Bgcolor: "#f0f0f0", Thickness: types.N(0.12)}
	b.layout.XAxes["xaxis"] = xaxis
}

func (b *builder) buildGrid() {
	fig := b.fig
	rows, cols := fig.GridSize()
	domains := ComputeDomains(rows, cols, HSpacing, VSpacing)
	b.layout.Grid = &grob.LayoutGrid{
		Rows:     types.I(rows),
		Columns:  types.I(cols),
		Pattern:  grob.LayoutGridPatternIndependent,
		Roworder: grob.LayoutGridRoworderTopToBottom,
	}

	legends := 0
	secondaries := 0
	for _, sp := range fig.Subplots {
		dom, ok := domains[Cell{sp.Row, sp.Col}]
		if !ok {
			continue
		}
		index := (sp.Row-1)*cols + sp.Col
		xref, yref := AxisRef("x", index), AxisRef("y", index)

		legend := ""
		if pos := LegendPosition(sp.LegendLoc, dom.X, dom.Y); pos != nil {
			legends++
			legend = AxisRef("legend", legends)
			b.layout.Legends[legend] = pos
		}

		secondaryRef := ""
		if sp.HasSecondary() {
			secondaries++
			secIndex := rows*cols + secondaries
			secondaryRef = AxisRef("y", secIndex)
			axis := secondaryAxis(sp.SecondaryYLabel, sp.SecondaryYLabelColor, sp.SecondaryGrid, yref)
			axis.Domain = dom.Y
			axis.Anchor = grob.LayoutYaxisAnchor(xref)
			b.layout.YAxes[AxisName("y", secIndex)] = axis
		}

		for _, s := range sp.Series {
			axisLabel := sp.YLabel
			if s.Secondary {
				axisLabel = sp.SecondaryYLabel
			}
			trace, ok := b.seriesTrace(s, axisLabel)
			if !ok {
				continue
			}
			trace.Xaxis = types.S(xref)
			trace.Yaxis = types.S(yref)
			if s.Secondary {
				trace.Yaxis = types.S(secondaryRef)
			}
			trace.Legend = types.S(legend)
			b.traces = append(b.traces, trace)
		}

		bottomRow := sp.Row == rows
		xaxis := xAxis("", fig.XTickFormat)
		if bottomRow {
			xaxis = xAxis(fig.XLabel, fig.XTickFormat)
		}
		xaxis.Domain = dom.X
		xaxis.Anchor = grob.LayoutXaxisAnchor(yref)
		if fig.ShareX {
			if index > 1 {
				xaxis.Matches = "x"
			}
			xaxis.Showticklabels = types.B(bottomRow)
		}
		b.layout.XAxes[AxisName("x", index)] = xaxis

		yaxis := yAxis(sp.YLabel, sp.YLabelColor, sp.Grid)
		yaxis.Domain = dom.Y
		yaxis.Anchor = grob.LayoutYaxisAnchor(xref)
		b.layout.YAxes[AxisName("y", index)] = yaxis

		if sp.Title != "" {
			b.layout.Annotations = append(b.layout.Annotations, grob.LayoutAnnotation{
				Text:      types.S(sp.Title),
				X:         (dom.X[0] + dom.X[1]) / 2,
				Y:         dom.Y[1],
				Xref:      grob.LayoutAnnotationXrefPaper,
				Yref:      grob.LayoutAnnotationYrefPaper,
				Xanchor:   grob.LayoutAnnotationXanchorCenter,
				Yanchor:   grob.LayoutAnnotationYanchorBottom,
				Showarrow: types.False,
				Font:      &grob.LayoutAnnotationFont{Size: types.N(14)},
			})
		}
	}
}

// seriesTrace builds the data trace of one series. axisLabel is the label
// of the axis the series is drawn on.
func (b *builder) seriesTrace(s spec.Series, axisLabel string) (*grob.Scatter, bool) {
	values, ok := b.data.Column(s.Column)
	if !ok {
		return nil, false
	}
	name := s.DisplayName()
	trace := &grob.Scatter{
		Mode:    grob.ScatterModeLines,
		X:       types.DataArray(b.data.Times),
		Y:       types.DataArray(sanitize(values)),
		Name:    types.S(name),
		Line:    &grob.ScatterLine{Color: types.C(s.Color), Dash: types.S(DashFor(s.LineStyle))},
		Opacity: types.N(s.Opacity()),
		Meta:    types.ArrayOKValue[interface{}](TraceMeta{Role: RoleData, Source: len(b.traces)}),
	}

	format := HoverFormat(name, axisLabel, b.fig.Title)
	unit := ""
	for _, label := range []string{axisLabel, name} {
		if _, u := splitUnit(label); u != "" {
			unit = u
			break
		}
	}

	var companion string
	if isRainRate(s.Column, name) {
		if accum, column, ok := RainCompanion(b.data); ok {
			trace.Customdata = types.DataArray(accum)
			companion = column
		}
	}
	trace.Hovertemplate = types.ArrayOKValue(types.S(hoverTemplate(format, unit, companion)))
	return trace, true
}

// hoverTemplate renders the unified hover line of a series. The name is
// written explicitly so the extra box can be dropped.
func hoverTemplate(format, unit, companion string) string {
	var sb strings.Builder
	sb.WriteString("%{fullData.name}: %{y")
	if format != "" {
		sb.WriteString(":" + format)
	}
	sb.WriteString("}")
	if unit != "" {
		sb.WriteString(" " + unit)
	}
	if companion != "" {
		label, accumUnit := splitUnit(companion)
		sb.WriteString("<br>" + label + ": %{customdata:.2f}")
		if accumUnit != "" {
			sb.WriteString(" " + accumUnit)
		}
	}
	sb.WriteString("<extra></extra>")
	return sb.String()
}

// addHighlights appends one hidden marker trace per data trace, placed on
// the first plotted point of its series.
func (b *builder) addHighlights() {
	count := len(b.traces)
	for i := 0; i < count; i++ {
		src := b.traces[i]
		color := DefaultColorway[i%len(DefaultColorway)]
		if src.Line != nil && src.Line.Color != "" {
			color = string(src.Line.Color)
		}
		x, y := []string{}, []*float64{}
		xs, _ := src.X.Value().([]string)
		ys, _ := src.Y.Value().([]*float64)
		if points := hover.BuildLookup(xs, ys); len(points) > 0 {
			v := points[0].Y
			x, y = []string{points[0].X}, []*float64{&v}
		}
		b.traces = append(b.traces, &grob.Scatter{
			Mode: grob.ScatterModeMarkers,
			X:    types.DataArray(x),
			Y:    types.DataArray(y),
			Marker: &grob.ScatterMarker{
				Size:    types.ArrayOKValue(types.N(8)),
				Color:   types.ArrayOKValue(types.UseColor(types.C(color))),
				Symbol:  types.ArrayOKValue(grob.ScatterMarkerSymbolCircle),
				Opacity: types.ArrayOKValue(types.N(1)),
				Line: &grob.ScatterMarkerLine{
					Color: types.ArrayOKValue(types.UseColor("#ffffff")),
					Width: types.ArrayOKValue(types.N(1.5)),
				},
			},
			Xaxis:      src.Xaxis,
			Yaxis:      src.Yaxis,
			Showlegend: types.False,
			Hoverinfo:  types.ArrayOKValue(grob.ScatterHoverinfoSkip),
			Visible:    grob.ScatterVisibleFalse,
			Meta:       types.ArrayOKValue[interface{}](TraceMeta{Role: RoleHighlight, Source: i}),
		})
	}
}

// sanitize copies values, replacing non-finite entries with nil so the
// document encodes as JSON.
func sanitize(values []*float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if finite(v) {
			out[i] = v
		}
	}
	return out
}
