package plotly

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	grob "github.com/MetalBlueberry/go-plotly/generated/v2.31.1/graph_objects"
	"github.com/MetalBlueberry/go-plotly/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stormplot/internal/dataset"
	"stormplot/internal/spec"
)

const stormCSV = `Date Time,Rain Rate (in/hr),Temperature (F)
9/28/2022 10:00,0.1,80
9/28/2022 11:00,0.5,79
9/28/2022 12:00,,78
`

func loadStorm(t *testing.T) *dataset.Dataset {
	t.Helper()
	d, err := dataset.LoadCSV(strings.NewReader(stormCSV))
	require.NoError(t, err)
	return d
}

func boolPtr(v bool) *bool { return &v }

func floatPtr(v float64) *float64 { return &v }

func singleFigure() spec.Figure {
	return spec.Figure{
		Outfile:         "ian_rain.png",
		Title:           "Rain and Temperature",
		Type:            spec.TypeSingle,
		YLabel:          "Rain Rate (in/hr)",
		SecondaryYLabel: "Temperature (F)",
		LegendLoc:       "upper left",
		Series: []spec.Series{
			{Column: "Rain Rate (in/hr)", Label: "Rain rate", Color: "blue"},
			{Column: "Temperature (F)", Label: "Temp", LineStyle: "--", Alpha: floatPtr(0.5), Secondary: true},
			{Column: "Missing", Label: "Gone"},
		},
	}
}

func xValues(t *grob.Scatter) []string {
	v, _ := t.X.Value().([]string)
	return v
}

func yValues(t *grob.Scatter) []*float64 {
	v, _ := t.Y.Value().([]*float64)
	return v
}

func layoutJSON(t *testing.T, fig *Figure) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(fig.Layout)
	require.NoError(t, err)
	var layout map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &layout))
	return layout
}

func TestBuildSingleEndToEnd(t *testing.T) {
	fig, err := Build(singleFigure(), loadStorm(t))
	require.NoError(t, err)

	require.Len(t, fig.Data, 4)
	data := fig.DataTraces()
	highlights := fig.HighlightTraces()
	require.Len(t, data, 2, "missing columns are dropped")
	require.Len(t, highlights, 2)

	assert.Equal(t, "Rain rate", string(data[0].Name))
	assert.Equal(t, "", string(data[0].Yaxis))
	assert.Equal(t, "y2", string(data[1].Yaxis))
	assert.Equal(t, "dash", string(data[1].Line.Dash))
	assert.Equal(t, 0.5, *data[1].Opacity)
	assert.Equal(t, "legend", string(data[0].Legend))
	assert.Equal(t, []string{"2022-09-28T10:00:00", "2022-09-28T11:00:00", "2022-09-28T12:00:00"}, xValues(data[0]))
	assert.Nil(t, yValues(data[0])[2])

	for i, h := range highlights {
		meta, ok := Meta(h)
		require.True(t, ok)
		assert.Equal(t, i, meta.Source)
		assert.Equal(t, grob.ScatterVisibleFalse, h.Visible)
		assert.False(t, *h.Showlegend)
		assert.Equal(t, grob.ScatterModeMarkers, h.Mode)
		assert.Equal(t, grob.ScatterHoverinfoSkip, *h.Hoverinfo.Value)
		assert.Equal(t, data[i].Yaxis, h.Yaxis)
	}
	assert.Equal(t, types.Color("blue"), *highlights[0].Marker.Color.Value.Color)
	assert.Equal(t, types.Color(DefaultColorway[1]), *highlights[1].Marker.Color.Value.Color)
	assert.Equal(t, []string{"2022-09-28T10:00:00"}, xValues(highlights[0]))
	assert.Equal(t, 0.1, *yValues(highlights[0])[0])

	layout := fig.Layout
	require.Contains(t, layout.YAxes, "yaxis2")
	assert.Equal(t, grob.LayoutYaxisOverlaying("y"), layout.YAxes["yaxis2"].Overlaying)
	assert.Equal(t, grob.LayoutYaxisSideRight, layout.YAxes["yaxis2"].Side)
	assert.Equal(t, grob.LayoutHovermodeXUnified, layout.Hovermode)
	assert.Equal(t, -1, *layout.Hoverdistance)
	assert.NotNil(t, layout.XAxes["xaxis"].Rangeslider)

	legend := layout.Legends["legend"]
	require.NotNil(t, legend)
	assert.Equal(t, grob.LayoutLegendXanchorLeft, legend.Xanchor)
	assert.InDelta(t, 0.99, *legend.Y, 1e-9)
	assert.Equal(t, 60.0, *layout.Margin.T)

	assert.True(t, *fig.Config.Responsive)
	assert.False(t, *fig.Config.Displaylogo)
	assert.Equal(t, []string{"resetScale2d", "lasso2d", "select2d"}, fig.Config.ModeBarButtonsToRemove)
}

func TestBuildHoverTemplates(t *testing.T) {
	d := newDataset(t, []string{"Sea Level Pressure (mb)", "Wind Speed (mph)", "Rain Rate", "Rain Accum (in)"}, map[string][]*float64{
		"Sea Level Pressure (mb)": values(1001.2, 999.87, 998.0),
		"Wind Speed (mph)":        values(10.0, 20.0, 30.0),
		"Rain Rate":               values(0.1, 0.0, 0.2),
		"Rain Accum (in)":         values(0.1, nil, 0.2),
	})
	fig := spec.Figure{
		Outfile: "mixed.png",
		Type:    spec.TypeSingle,
		Series: []spec.Series{
			{Column: "Sea Level Pressure (mb)"},
			{Column: "Wind Speed (mph)"},
			{Column: "Rain Rate"},
		},
	}
	doc, err := Build(fig, d)
	require.NoError(t, err)
	traces := doc.DataTraces()
	require.Len(t, traces, 3)

	assert.Equal(t, "%{fullData.name}: %{y:.1f} mb<extra></extra>", string(*traces[0].Hovertemplate.Value))
	assert.Equal(t, "%{fullData.name}: %{y} mph<extra></extra>", string(*traces[1].Hovertemplate.Value))
	assert.Equal(t, "%{fullData.name}: %{y}<br>Rain Accum: %{customdata:.2f} in<extra></extra>", string(*traces[2].Hovertemplate.Value))

	require.NotNil(t, traces[2].Customdata)
	accum, _ := traces[2].Customdata.Value().([]*float64)
	require.Len(t, accum, 3)
	assert.InDelta(t, 0.3, *accum[2], 1e-9)
	assert.Nil(t, traces[0].Customdata)
}

func gridFigure() spec.Figure {
	return spec.Figure{
		Outfile: "grid.png",
		Title:   "Ian",
		XLabel:  "Time",
		Type:    spec.TypeGrid,
		Rows:    2,
		Cols:    2,
		ShareX:  true,
		Subplots: []spec.Subplot{
			{
				Row: 1, Col: 1, Title: "Rain", LegendLoc: "upper left",
				SecondaryYLabel: "Temperature (F)", SecondaryYLabelColor: "red",
				Series: []spec.Series{
					{Column: "Rain Rate (in/hr)"},
					{Column: "Temperature (F)", Secondary: true},
					{Column: "Temperature (F)", Label: "Temp again", Secondary: true},
				},
			},
			{Row: 1, Col: 2, YLabel: "Temp", Grid: boolPtr(false), Series: []spec.Series{{Column: "Temperature (F)"}}},
			{Row: 2, Col: 1, LegendLoc: "lower left", Series: []spec.Series{{Column: "Rain Rate (in/hr)"}}},
			{Row: 2, Col: 2, Series: []spec.Series{{Column: "Temperature (F)", Secondary: true}, {Column: "Nope"}}},
		},
	}
}

func TestBuildGrid(t *testing.T) {
	fig, err := Build(gridFigure(), loadStorm(t))
	require.NoError(t, err)

	data := fig.DataTraces()
	require.Len(t, data, 6)
	assert.Len(t, fig.HighlightTraces(), 6)

	assert.Equal(t, "x", string(data[0].Xaxis))
	assert.Equal(t, "y", string(data[0].Yaxis))
	assert.Equal(t, "y5", string(data[1].Yaxis), "secondary axes follow the primary ones")
	assert.Equal(t, "y5", string(data[2].Yaxis), "one secondary axis per cell")
	assert.Equal(t, "x2", string(data[3].Xaxis))
	assert.Equal(t, "legend2", string(data[4].Legend))
	assert.Equal(t, "x4", string(data[5].Xaxis))
	assert.Equal(t, "y6", string(data[5].Yaxis))

	layout := layoutJSON(t, fig)
	grid := layout["grid"].(map[string]interface{})
	assert.Equal(t, "top to bottom", grid["roworder"])
	assert.Equal(t, 2.0, grid["rows"])

	sec := layout["yaxis5"].(map[string]interface{})
	assert.Equal(t, "y", sec["overlaying"])
	assert.Equal(t, "x", sec["anchor"])
	assert.Equal(t, map[string]interface{}{"color": "red"}, sec["tickfont"])
	assert.Contains(t, layout, "yaxis6")
	assert.NotContains(t, layout, "yaxis7")

	x1 := layout["xaxis"].(map[string]interface{})
	x2 := layout["xaxis2"].(map[string]interface{})
	x3 := layout["xaxis3"].(map[string]interface{})
	assert.NotContains(t, x1, "matches")
	assert.Equal(t, "x", x2["matches"])
	assert.Equal(t, false, x1["showticklabels"])
	assert.Equal(t, true, x3["showticklabels"])
	assert.Equal(t, map[string]interface{}{"text": "Time"}, x3["title"])
	assert.NotContains(t, x1, "title")
	assert.NotContains(t, x1, "rangeslider")

	y2 := layout["yaxis2"].(map[string]interface{})
	assert.Equal(t, false, y2["showgrid"])
	assert.Equal(t, "x2", y2["anchor"])
	domain := x2["domain"].([]interface{})
	require.Len(t, domain, 2)
	assert.InDelta(t, 0.54, domain[0], 1e-9)
	assert.InDelta(t, 1.0, domain[1], 1e-9)

	lower := layout["legend2"].(map[string]interface{})
	assert.InDelta(t, 0.01, lower["x"], 1e-9)
	assert.InDelta(t, 0.01, lower["y"], 1e-9)
	assert.Contains(t, layout, "legend")
	assert.NotContains(t, layout, "legend3")

	annotations := layout["annotations"].([]interface{})
	require.Len(t, annotations, 1)
	assert.Equal(t, "Rain", annotations[0].(map[string]interface{})["text"])

	margin := layout["margin"].(map[string]interface{})
	assert.Equal(t, 80.0, margin["b"])
	assert.Equal(t, "x unified", layout["hovermode"])
	assert.Equal(t, -1.0, layout["hoverdistance"])
}

func TestLayoutEncodesAxesBeyondTypedFields(t *testing.T) {
	fig := gridFigure()
	fig.Rows, fig.Cols = 3, 3
	fig.Subplots = append(fig.Subplots, spec.Subplot{
		Row: 3, Col: 3, LegendLoc: "center",
		Series: []spec.Series{{Column: "Rain Rate (in/hr)"}, {Column: "Temperature (F)", Secondary: true}},
	})
	doc, err := Build(fig, loadStorm(t))
	require.NoError(t, err)

	layout := layoutJSON(t, doc)
	assert.Contains(t, layout, "xaxis9")
	assert.Contains(t, layout, "yaxis9")
	assert.Contains(t, layout, "yaxis12", "third secondary axis follows the nine primaries")
	assert.Contains(t, layout, "legend3")
	assert.Equal(t, "y12", string(doc.DataTraces()[7].Yaxis))
}

func TestBuildEncodesAsJSON(t *testing.T) {
	d := newDataset(t, []string{"A"}, map[string][]*float64{"A": values(1.0, nil, 3.0)})
	nan := math.NaN()
	col, _ := d.Column("A")
	col[1] = &nan

	fig, err := Build(spec.Figure{Outfile: "a.png", Series: []spec.Series{{Column: "A"}}}, d)
	require.NoError(t, err)
	_, err = json.Marshal(fig.Data)
	assert.NoError(t, err)
	assert.Nil(t, yValues(fig.Data[0])[1])
}

func TestBuildWithoutData(t *testing.T) {
	_, err := Build(singleFigure(), nil)
	assert.Error(t, err)
}

func TestDashFor(t *testing.T) {
	assert.Equal(t, "solid", DashFor(""))
	assert.Equal(t, "solid", DashFor("-"))
	assert.Equal(t, "dash", DashFor("--"))
	assert.Equal(t, "dashdot", DashFor("-."))
	assert.Equal(t, "dot", DashFor(":"))
}
