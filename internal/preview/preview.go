// Package preview renders a quick-look page for a dataset: one zoomable
// line chart per numeric column.
package preview

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"stormplot/internal/dataset"
	"stormplot/internal/plotly"
)

// ErrNoColumns is returned when no column holds a single value.
var ErrNoColumns = errors.New("dataset has no plottable columns")

const labelLayout = "01-02 15:04"

// Build creates the preview page. Timestamps are wall-clock times and are
// labelled as they appear in the dataset.
func Build(data *dataset.Dataset, title string) (*components.Page, error) {
	labels := make([]string, data.Len())
	for i := range labels {
		labels[i] = data.Time(i).Format(labelLayout)
	}

	page := components.NewPage()
	page.SetPageTitle(title)
	page.SetLayout(components.PageFlexLayout)

	added := 0
	for _, name := range data.Names() {
		values, _ := data.Column(name)
		if !hasValue(values) {
			continue
		}
		color := plotly.DefaultColorway[added%len(plotly.DefaultColorway)]
		page.AddCharts(columnChart(name, labels, values, color))
		added++
	}
	if added == 0 {
		return nil, ErrNoColumns
	}
	return page, nil
}

// Render builds the preview page and returns its HTML.
func Render(data *dataset.Dataset, title string) ([]byte, error) {
	page, err := Build(data, title)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render preview: %w", err)
	}
	return buf.Bytes(), nil
}

func columnChart(name string, labels []string, values []*float64, color string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    name,
			Subtitle: fmt.Sprintf("%d of %d rows with values", countValues(values), len(values)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "category",
			AxisLabel: &opts.AxisLabel{
				Rotate: 30,
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:  "value",
			Scale: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:  "slider",
			Start: 0,
			End:   100,
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "900px",
			Height: "360px",
		}),
	)

	points := make([]opts.LineData, len(values))
	for i, v := range values {
		if v == nil {
			// echarts draws "-" as a gap
			points[i] = opts.LineData{Value: "-"}
			continue
		}
		points[i] = opts.LineData{Value: *v}
	}

	line.SetXAxis(labels)
	line.AddSeries(name, points,
		charts.WithLineChartOpts(opts.LineChart{
			ShowSymbol:   opts.Bool(false),
			ConnectNulls: opts.Bool(false),
		}),
		charts.WithLineStyleOpts(opts.LineStyle{
			Color: color,
			Width: 1.5,
		}),
	)
	return line
}

func hasValue(values []*float64) bool {
	return countValues(values) > 0
}

func countValues(values []*float64) int {
	n := 0
	for _, v := range values {
		if v != nil {
			n++
		}
	}
	return n
}
