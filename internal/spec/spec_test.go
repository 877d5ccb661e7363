package spec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gridSpec = `[
  {
    "outfile": "plots/ian_overview.png",
    "title": "Hurricane Ian",
    "x_tickformat": "%m-%d %H:%M",
    "type": "grid",
    "rows": 2,
    "cols": 1,
    "sharex": true,
    "subplots": [
      {
        "key": "axs[0,0]",
        "col": 1,
        "title": "Wind",
        "ylabel": "Wind Speed (mph)",
        "yaxis_color": "tab:blue",
        "legend_loc": "upper left",
        "series": [
          {"column": "Wind Speed", "color": "tab:blue", "linestyle": "-", "secondary_y": false},
          {"column": "Wind Gust", "label": "Gust", "linestyle": "--", "alpha": 0.6, "secondary_y": false}
        ]
      },
      {
        "row": 2,
        "col": 1,
        "grid": false,
        "series": [
          {"column": "Pressure", "label": "Pressure (mb)"},
          {"column": "Rain Rate", "secondary_y": true}
        ],
        "secondary_ylabel": "Rain (in/hr)",
        "secondary_yaxis_color": "green",
        "secondary_grid": false
      }
    ]
  },
  {"outfile": "temp.png", "ylabel": "Temp", "series": [{"column": "Temperature"}]}
]`

func TestParseAppliesDefaultsAndAliases(t *testing.T) {
	figures, err := Parse([]byte(gridSpec))
	require.NoError(t, err)
	require.Len(t, figures, 2)

	grid := figures[0]
	assert.True(t, grid.IsGrid())
	rows, cols := grid.GridSize()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 1, cols)
	assert.True(t, grid.ShareX)

	first := grid.Subplots[0]
	assert.Equal(t, 1, first.Row, "row defaults to 1")
	assert.Equal(t, "tab:blue", first.YLabelColor, "yaxis_color aliases ylabel_color")
	assert.Equal(t, "Wind Speed", first.Series[0].Label, "label falls back to column")
	assert.Equal(t, "Gust", first.Series[1].Label)
	require.NotNil(t, first.Series[1].Alpha)
	assert.InDelta(t, 0.6, first.Series[1].Opacity(), 1e-9)
	assert.Equal(t, 1.0, first.Series[0].Opacity())
	assert.Nil(t, first.Grid)

	second := grid.Subplots[1]
	assert.True(t, second.HasSecondary())
	assert.False(t, first.HasSecondary())
	assert.Equal(t, "green", second.SecondaryYLabelColor)
	assert.False(t, BoolOr(second.Grid, true))
	assert.False(t, BoolOr(second.SecondaryGrid, true))

	single := figures[1]
	assert.Equal(t, TypeSingle, single.Type, "type defaults to single")
	assert.False(t, single.IsGrid())
	assert.Equal(t, "temp", single.Stem())
	assert.Equal(t, "ian_overview", grid.Stem())
}

func TestRoundTripPreservesStructure(t *testing.T) {
	first, err := Parse([]byte(gridSpec))
	require.NoError(t, err)

	encoded, err := Marshal(first)
	require.NoError(t, err)

	second, err := Parse(encoded)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("round trip changed the spec (-first +second):\n%s", diff)
	}
}

func TestRoundTripIgnoresKeyOrder(t *testing.T) {
	a := `[{"type":"single","outfile":"a.png","series":[{"label":"T","column":"Temp","secondary_y":true}]}]`
	b := `[{"series":[{"secondary_y":true,"column":"Temp","label":"T"}],"outfile":"a.png","type":"single"}]`

	fa, err := Parse([]byte(a))
	require.NoError(t, err)
	fb, err := Parse([]byte(b))
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(fa, fb))
}

func TestGridWithoutSubplotsIsSingle(t *testing.T) {
	figures, err := Parse([]byte(`[{"outfile":"x.png","type":"grid","rows":2,"cols":2}]`))
	require.NoError(t, err)
	assert.False(t, figures[0].IsGrid())
}

func TestLoadAndMarshalEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.json")
	data, err := Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
	require.NoError(t, os.WriteFile(path, data, 0644))

	figures, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, figures)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestColumnNames(t *testing.T) {
	figures, err := Parse([]byte(gridSpec))
	require.NoError(t, err)
	assert.Equal(t, []string{"Wind Speed", "Wind Gust", "Pressure", "Rain Rate"}, figures[0].ColumnNames())
}

func TestParseLineStyle(t *testing.T) {
	tests := map[string]LineStyle{
		"":        Solid,
		"-":       Solid,
		"--":      Dashed,
		"dashed":  Dashed,
		"-.":      DashDot,
		":":       Dotted,
		"dotted":  Dotted,
		"squiggy": Solid,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLineStyle(in), "input %q", in)
	}
	assert.Equal(t, "-.", DashDot.Code())
}

func TestParseAcceptsWholeFloatGridIndex(t *testing.T) {
	figures, err := Parse([]byte(`[{"outfile":"g.png","type":"grid","rows":2,"cols":2,
		"subplots":[{"row":2.0,"col":2.0,"series":[{"column":"Temp"}]}]}]`))
	require.NoError(t, err)
	sp := figures[0].Subplots[0]
	assert.Equal(t, 2, sp.Row)
	assert.Equal(t, 2, sp.Col)

	_, err = Parse([]byte(`[{"outfile":"g.png","type":"grid","subplots":[{"row":1.5,"series":[]}]}]`))
	assert.ErrorContains(t, err, "subplot row must be a whole number")
}
