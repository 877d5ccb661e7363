package plotly

import (
	"testing"

	grob "github.com/MetalBlueberry/go-plotly/generated/v2.31.1/graph_objects"
	"github.com/MetalBlueberry/go-plotly/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDomainsTilesUnitSquare(t *testing.T) {
	domains := ComputeDomains(2, 2, HSpacing, VSpacing)
	require.Len(t, domains, 4)

	const eps = 1e-9
	width, height := (1-HSpacing)/2, (1-VSpacing)/2

	topLeft := domains[Cell{1, 1}]
	assert.InDelta(t, 0.0, topLeft.X[0], eps)
	assert.InDelta(t, width, topLeft.X[1], eps)
	assert.InDelta(t, 1.0, topLeft.Y[1], eps, "row 1 is the top band")
	assert.InDelta(t, 1.0-height, topLeft.Y[0], eps)

	bottomRight := domains[Cell{2, 2}]
	assert.InDelta(t, 1.0, bottomRight.X[1], eps)
	assert.InDelta(t, 0.0, bottomRight.Y[0], eps)

	// gaps between neighbours equal the spacing
	assert.InDelta(t, HSpacing, domains[Cell{1, 2}].X[0]-topLeft.X[1], eps)
	assert.InDelta(t, VSpacing, topLeft.Y[0]-domains[Cell{2, 1}].Y[1], eps)

	for a, da := range domains {
		assert.InDelta(t, width, da.X[1]-da.X[0], eps)
		assert.InDelta(t, height, da.Y[1]-da.Y[0], eps)
		for b, db := range domains {
			if a == b {
				continue
			}
			overlapX := da.X[0] < db.X[1]-eps && db.X[0] < da.X[1]-eps
			overlapY := da.Y[0] < db.Y[1]-eps && db.Y[0] < da.Y[1]-eps
			assert.False(t, overlapX && overlapY, "%v overlaps %v", a, b)
		}
	}
}

func TestComputeDomainsSingleCell(t *testing.T) {
	d := ComputeDomains(1, 1, HSpacing, VSpacing)[Cell{1, 1}]
	assert.Equal(t, Domain{X: [2]float64{0, 1}, Y: [2]float64{0, 1}}, d)
}

func TestAxisNames(t *testing.T) {
	assert.Equal(t, "xaxis", AxisName("x", 1))
	assert.Equal(t, "yaxis5", AxisName("y", 5))
	assert.Equal(t, "y", AxisRef("y", 1))
	assert.Equal(t, "x3", AxisRef("x", 3))
	assert.Equal(t, "legend2", AxisRef("legend", 2))
}

func TestLegendPositionInsideDomain(t *testing.T) {
	pos := LegendPosition("lower left", [2]float64{0, 0.5}, [2]float64{0, 0.48})
	require.NotNil(t, pos)
	assert.InDelta(t, 0.01, *pos.X, 1e-12)
	assert.InDelta(t, 0.01, *pos.Y, 1e-12)
	assert.Equal(t, grob.LayoutLegendXanchorLeft, pos.Xanchor)
	assert.Equal(t, grob.LayoutLegendYanchorBottom, pos.Yanchor)
	assert.Equal(t, types.Color("rgba(255,255,255,0.8)"), pos.Bgcolor)
}

func TestLegendPositionTable(t *testing.T) {
	x, y := [2]float64{0.54, 1}, [2]float64{0.56, 1}
	tests := []struct {
		loc              string
		wantX, wantY     float64
		xanchor, yanchor string
	}{
		{"best", 0.99, 0.99, "right", "top"},
		{"Upper Right", 0.99, 0.99, "right", "top"},
		{"upper left", 0.55, 0.99, "left", "top"},
		{"upper center", 0.77, 0.99, "center", "top"},
		{"center right", 0.99, 0.78, "right", "middle"},
		{"center", 0.77, 0.78, "center", "middle"},
	}
	for _, tt := range tests {
		pos := LegendPosition(tt.loc, x, y)
		require.NotNil(t, pos, tt.loc)
		assert.InDelta(t, tt.wantX, *pos.X, 1e-9, tt.loc)
		assert.InDelta(t, tt.wantY, *pos.Y, 1e-9, tt.loc)
		assert.Equal(t, tt.xanchor, string(pos.Xanchor), tt.loc)
		assert.Equal(t, tt.yanchor, string(pos.Yanchor), tt.loc)
	}

	assert.Nil(t, LegendPosition("", x, y))
	assert.Nil(t, LegendPosition("outside", x, y))
}
