package charts

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"math"
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"stormplot/internal/dataset"
	"stormplot/internal/logger"
	"stormplot/internal/spec"
)

// Canvas size of a grid figure, 14x8 inches at 100 dpi.
const (
	CanvasWidth  = 1400
	CanvasHeight = 800
)

const (
	// DefaultTickFormat labels the shared time axis when a figure has none.
	DefaultTickFormat = "%m-%d %H:%M"

	suptitleBand     = 44
	suptitleFontSize = 20
	lineWidth        = 1.5
)

// ErrNotGrid is returned for figures that are not grids. Callers skip them.
var ErrNotGrid = errors.New("figure is not a grid")

var errNoData = errors.New("no finite data")

var gridLineStyle = chart.Style{
	StrokeColor:     drawing.Color{R: 176, G: 176, B: 176, A: 153},
	StrokeWidth:     0.8,
	StrokeDashArray: []float64{3, 2},
}

// cellContext carries what every cell of one figure shares.
type cellContext struct {
	width, height int
	times         []time.Time
	data          *dataset.Dataset
	xRange        *chart.ContinuousRange
	xLabel        string
	format        func(time.Time) string
	lastRow       int
	shareX        bool
	log           *logger.Logger
}

// RenderGrid draws a grid figure as one SVG document. Each subplot is
// rendered by go-chart into its own cell and the cells are composed under
// an optional suptitle.
func RenderGrid(fig spec.Figure, data *dataset.Dataset, loc *time.Location) ([]byte, error) {
	if !fig.IsGrid() {
		return nil, ErrNotGrid
	}
	if data == nil {
		return nil, fmt.Errorf("no dataset for %s", fig.Outfile)
	}
	if loc == nil {
		loc = time.UTC
	}
	log := logger.WithComponent("static")

	rows, cols := fig.GridSize()
	top := 0
	if fig.Title != "" {
		top = suptitleBand
	}
	cellW := CanvasWidth / cols
	cellH := (CanvasHeight - top) / rows

	times := displayTimes(data, loc)
	ctx := cellContext{
		width:   cellW,
		height:  cellH,
		times:   times,
		data:    data,
		xLabel:  fig.XLabel,
		format:  tickFormatter(fig.XTickFormat, loc, log),
		lastRow: rows,
		shareX:  fig.ShareX,
		log:     log,
	}
	if fig.ShareX {
		ctx.xRange = figureTimeRange(fig.Subplots, data, times)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%d" height="%d" viewBox="0 0 %d %d">`,
		CanvasWidth, CanvasHeight, CanvasWidth, CanvasHeight)
	buf.WriteString(`<rect x="0" y="0" width="100%" height="100%" fill="#ffffff"/>`)
	if fig.Title != "" {
		fmt.Fprintf(&buf, `<text x="%d" y="%d" text-anchor="middle" font-family="Arial, Helvetica, sans-serif" font-size="%d" fill="#000000">%s</text>`,
			CanvasWidth/2, suptitleBand-12, suptitleFontSize, html.EscapeString(fig.Title))
	}

	for _, sp := range fig.Subplots {
		if sp.Row < 1 || sp.Row > rows || sp.Col < 1 || sp.Col > cols {
			log.Warn("subplot outside grid, skipped", map[string]interface{}{
				"outfile": fig.Outfile,
				"row":     sp.Row,
				"col":     sp.Col,
			})
			continue
		}
		x := (sp.Col - 1) * cellW
		y := top + (sp.Row-1)*cellH

		cell, err := ctx.render(sp)
		if err != nil {
			if !errors.Is(err, errNoData) {
				log.Warn("subplot failed to render, drawing placeholder", map[string]interface{}{
					"outfile": fig.Outfile,
					"row":     sp.Row,
					"col":     sp.Col,
					"error":   err.Error(),
				})
			}
			cell = placeholder(sp.Title, cellW, cellH)
		}
		buf.Write(embedCell(cell, x, y, cellW, cellH))
	}

	buf.WriteString("</svg>")
	return buf.Bytes(), nil
}

// render draws one subplot. Primary series go on go-chart's left axis and
// secondary series on its right axis, matching matplotlib's twinx layout.
func (c cellContext) render(sp spec.Subplot) ([]byte, error) {
	var left, right []chart.Series
	leftY, rightY := newBounds(), newBounds()
	xb := newBounds()

	var li, ri int
	for _, s := range sp.Series {
		values, ok := c.data.Column(s.Column)
		if !ok {
			c.log.Debug("column not in dataset", map[string]interface{}{"column": s.Column})
			continue
		}
		if s.Secondary {
			right = append(right, timeSeries(s, ri, chart.YAxisPrimary, c.times, values, rightY, xb)...)
			ri++
		} else {
			left = append(left, timeSeries(s, li, chart.YAxisSecondary, c.times, values, leftY, xb)...)
			li++
		}
	}
	if len(left)+len(right) == 0 {
		return nil, errNoData
	}

	xRange := xb.timeRange()
	if c.xRange != nil {
		// go-chart sets the domain on the range, so each cell gets a copy.
		shared := *c.xRange
		xRange = &shared
	}

	tickLabels := !c.shareX || sp.Row == c.lastRow
	format := c.format
	xAxis := chart.XAxis{
		Style: chart.Style{FontSize: 8},
		Range: xRange,
		ValueFormatter: func(v interface{}) string {
			if f, ok := v.(float64); ok {
				return format(chart.TimeFromFloat64(f))
			}
			return ""
		},
		GridMajorStyle: chart.Hidden(),
		GridMinorStyle: chart.Hidden(),
	}
	if !tickLabels {
		// Shared axes keep the tick positions of the bottom row.
		xAxis.TickStyle = chart.Style{FontColor: drawing.ColorTransparent}
	}
	if c.xLabel != "" && tickLabels {
		xAxis.Name = c.xLabel
		xAxis.NameStyle = chart.Style{FontSize: 9, FontColor: drawing.ColorBlack}
	}

	grid := spec.BoolOr(sp.Grid, false)
	primary := axis(sp.YLabel, sp.YLabelColor, leftY.valueRange(), grid, len(left) > 0)
	secondary := axis(sp.SecondaryYLabel, sp.SecondaryYLabelColor, rightY.valueRange(),
		spec.BoolOr(sp.SecondaryGrid, false), len(right) > 0)
	if grid {
		xAxis.GridMajorStyle = gridLineStyle
		xAxis.GridMinorStyle = gridLineStyle
	}

	topPadding := 12
	if sp.Title != "" {
		topPadding = 34
	}

	graph := chart.Chart{
		Title: sp.Title,
		TitleStyle: chart.Style{
			FontSize:  12,
			FontColor: drawing.ColorBlack,
			Padding:   chart.Box{Top: 8},
		},
		Width:  c.width,
		Height: c.height,
		Background: chart.Style{
			Padding: chart.Box{Top: topPadding, Left: 12, Right: 12, Bottom: 8},
		},
		XAxis: xAxis,
		// go-chart draws its primary axis on the right.
		YAxis:          secondary,
		YAxisSecondary: primary,
		Series:         append(left, right...),
	}
	if sp.LegendLoc != "" {
		graph.Elements = []chart.Renderable{legendAt(&graph, sp.LegendLoc)}
	}

	var out bytes.Buffer
	if err := graph.Render(chart.SVG, &out); err != nil {
		return nil, fmt.Errorf("failed to render subplot (%d, %d): %w", sp.Row, sp.Col, err)
	}
	return out.Bytes(), nil
}

// axis builds a value axis. Axes without series are hidden.
func axis(label, color string, r *chart.ContinuousRange, grid, used bool) chart.YAxis {
	ya := chart.YAxis{
		Style:          chart.Style{FontSize: 8},
		Range:          r,
		GridMajorStyle: chart.Hidden(),
		GridMinorStyle: chart.Hidden(),
	}
	if !used {
		ya.Style = chart.Hidden()
		return ya
	}
	if label != "" {
		nameColor := parseColor(color)
		if nameColor.IsZero() {
			nameColor = drawing.ColorBlack
		}
		ya.Name = label
		ya.NameStyle = chart.Style{FontSize: 9, FontColor: nameColor}
	}
	if grid {
		ya.GridMajorStyle = gridLineStyle
		ya.GridMinorStyle = gridLineStyle
	}
	return ya
}

// timeSeries splits a column into contiguous runs of finite values. Only
// the first run carries the legend name.
func timeSeries(s spec.Series, index int, yAxis chart.YAxisType, times []time.Time, values []*float64, yb, xb *bounds) []chart.Series {
	color := seriesColor(s, index)
	style := chart.Style{
		StrokeColor:     color,
		StrokeWidth:     lineWidth,
		StrokeDashArray: dashArray(spec.ParseLineStyle(s.LineStyle)),
	}

	var out []chart.Series
	var xs []time.Time
	var ys []float64
	flush := func() {
		if len(xs) == 0 {
			return
		}
		st := style
		if len(xs) == 1 {
			st.DotColor = color
			st.DotWidth = lineWidth
		}
		name := ""
		if len(out) == 0 {
			name = s.DisplayName()
		}
		out = append(out, chart.TimeSeries{
			Name:    name,
			Style:   st,
			YAxis:   yAxis,
			XValues: xs,
			YValues: ys,
		})
		xs, ys = nil, nil
	}

	for i, v := range values {
		if i >= len(times) {
			break
		}
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			flush()
			continue
		}
		xs = append(xs, times[i])
		ys = append(ys, *v)
		yb.add(*v)
		xb.add(chart.TimeToFloat64(times[i]))
	}
	flush()
	return out
}

// displayTimes places the dataset's wall-clock timestamps in loc.
func displayTimes(data *dataset.Dataset, loc *time.Location) []time.Time {
	stamps := data.Stamps()
	out := make([]time.Time, len(stamps))
	for i, t := range stamps {
		out[i] = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	}
	return out
}

// figureTimeRange spans every finite point plotted anywhere in the figure.
func figureTimeRange(subplots []spec.Subplot, data *dataset.Dataset, times []time.Time) *chart.ContinuousRange {
	xb := newBounds()
	for _, sp := range subplots {
		for _, s := range sp.Series {
			values, ok := data.Column(s.Column)
			if !ok {
				continue
			}
			for i, v := range values {
				if i < len(times) && v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) {
					xb.add(chart.TimeToFloat64(times[i]))
				}
			}
		}
	}
	if xb.empty() {
		return nil
	}
	return xb.timeRange()
}

// tickFormatter compiles a strftime pattern, falling back to the default
// pattern when it cannot be compiled.
func tickFormatter(pattern string, loc *time.Location, log *logger.Logger) func(time.Time) string {
	if pattern == "" {
		pattern = DefaultTickFormat
	}
	f, err := strftime.New(pattern)
	if err != nil {
		log.Warn("invalid tick format, using default", map[string]interface{}{
			"format": pattern,
			"error":  err.Error(),
		})
		f, _ = strftime.New(DefaultTickFormat)
	}
	return func(t time.Time) string {
		return f.FormatString(t.In(loc))
	}
}

// bounds tracks the extent of plotted values.
type bounds struct {
	min, max float64
}

func newBounds() *bounds {
	return &bounds{min: math.Inf(1), max: math.Inf(-1)}
}

func (b *bounds) add(v float64) {
	b.min = math.Min(b.min, v)
	b.max = math.Max(b.max, v)
}

func (b *bounds) empty() bool {
	return b.min > b.max
}

// valueRange pads the extent by 5% on each side, or by one unit when the
// extent is a single value.
func (b *bounds) valueRange() *chart.ContinuousRange {
	if b.empty() {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	if b.min == b.max {
		return &chart.ContinuousRange{Min: b.min - 1, Max: b.max + 1}
	}
	pad := (b.max - b.min) * 0.05
	return &chart.ContinuousRange{Min: b.min - pad, Max: b.max + pad}
}

// timeRange is the exact time extent, widened to an hour around a single
// instant.
func (b *bounds) timeRange() *chart.ContinuousRange {
	if b.empty() {
		return nil
	}
	if b.min == b.max {
		half := float64(30 * time.Minute)
		return &chart.ContinuousRange{Min: b.min - half, Max: b.max + half}
	}
	return &chart.ContinuousRange{Min: b.min, Max: b.max}
}

// embedCell positions a rendered cell document inside the figure.
func embedCell(cell []byte, x, y, w, h int) []byte {
	attrs := fmt.Sprintf(`<svg x="%d" y="%d" width="%d" height="%d" `, x, y, w, h)
	return bytes.Replace(cell, []byte("<svg "), []byte(attrs), 1)
}

// placeholder stands in for a subplot with nothing to draw.
func placeholder(title string, w, h int) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d">`, w, h)
	fmt.Fprintf(&buf, `<rect x="12" y="34" width="%d" height="%d" fill="none" stroke="#b0b0b0" stroke-width="1"/>`, w-24, h-46)
	if title != "" {
		fmt.Fprintf(&buf, `<text x="%d" y="24" text-anchor="middle" font-family="Arial, Helvetica, sans-serif" font-size="15" fill="#000000">%s</text>`,
			w/2, html.EscapeString(title))
	}
	fmt.Fprintf(&buf, `<text x="%d" y="%d" text-anchor="middle" font-family="Arial, Helvetica, sans-serif" font-size="12" fill="#808080">No data</text>`,
		w/2, h/2+10)
	buf.WriteString("</svg>")
	return buf.Bytes()
}
