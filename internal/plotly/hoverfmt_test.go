package plotly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stormplot/internal/dataset"
)

func values(vs ...interface{}) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		if f, ok := v.(float64); ok {
			out[i] = dataset.Float(f)
		}
	}
	return out
}

func hourly(n int) []time.Time {
	start := time.Date(2022, 9, 28, 10, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return times
}

func newDataset(t *testing.T, names []string, columns map[string][]*float64) *dataset.Dataset {
	t.Helper()
	n := 0
	for _, v := range columns {
		n = len(v)
		break
	}
	d, err := dataset.New(hourly(n), names, columns)
	require.NoError(t, err)
	return d
}

func deref(vs []*float64) []interface{} {
	out := make([]interface{}, len(vs))
	for i, v := range vs {
		if v != nil {
			out[i] = *v
		}
	}
	return out
}

func TestUnitFromLabel(t *testing.T) {
	assert.Equal(t, "°F", UnitFromLabel("Temperature (°F)"))
	assert.Equal(t, "mb", UnitFromLabel("Sea Level Pressure (mb) "))
	assert.Equal(t, "Wind", UnitFromLabel("Wind"))
	assert.Equal(t, "", UnitFromLabel(""))
}

func TestHoverFormat(t *testing.T) {
	assert.Equal(t, ".1f", HoverFormat("Sea Level Pressure (mb)"))
	assert.Equal(t, "", HoverFormat("Wind Speed (mph)"))
	assert.Equal(t, ".1f", HoverFormat("Barometer (inHg)"))
	assert.Equal(t, ".1f", HoverFormat("Baro", "hPa"))
	assert.Equal(t, ".1f", HoverFormat("Series", "", "Pressure drop"))
	assert.Equal(t, "", HoverFormat("", "Temperature (F)", ""))
}

func TestRainCompanionCumulativeIsForwardFilled(t *testing.T) {
	d := newDataset(t, []string{"Rain Rate", "Rain Accum Total"}, map[string][]*float64{
		"Rain Rate":        values(0.0, 0.0, 1.2, 0.0, 1.8),
		"Rain Accum Total": values(0.0, 0.0, 1.2, 1.2, 3.0),
	})
	got, name, ok := RainCompanion(d)
	require.True(t, ok)
	assert.Equal(t, "Rain Accum Total", name)
	assert.Equal(t, []interface{}{0.0, 0.0, 1.2, 1.2, 3.0}, deref(got))
}

func TestRainCompanionIncrementsAreSummed(t *testing.T) {
	d := newDataset(t, []string{"Rain Accum"}, map[string][]*float64{
		"Rain Accum": values(0.1, nil, 0.2),
	})
	got, _, ok := RainCompanion(d)
	require.True(t, ok)
	require.Len(t, got, 3)
	assert.InDelta(t, 0.1, *got[0], 1e-9)
	assert.InDelta(t, 0.1, *got[1], 1e-9)
	assert.InDelta(t, 0.3, *got[2], 1e-9)
}

func TestRainCompanionSkipsSparseColumns(t *testing.T) {
	d := newDataset(t, []string{"Rain Accum Hourly", "Rain Accum Daily"}, map[string][]*float64{
		"Rain Accum Hourly": values(nil, 0.4, nil),
		"Rain Accum Daily":  values(nil, 0.5, 0.7),
	})
	got, name, ok := RainCompanion(d)
	require.True(t, ok)
	assert.Equal(t, "Rain Accum Daily", name)
	assert.Equal(t, []interface{}{nil, 0.5, 0.7}, deref(got), "leading gaps stay empty")

	d = newDataset(t, []string{"Rain Accum Total"}, map[string][]*float64{
		"Rain Accum Total": values(nil, 0.4, nil),
	})
	got, _, ok = RainCompanion(d)
	require.True(t, ok, "total columns are used however sparse")
	assert.Equal(t, []interface{}{nil, 0.4, 0.4}, deref(got))

	d = newDataset(t, []string{"Rain Rate"}, map[string][]*float64{"Rain Rate": values(1.0)})
	_, _, ok = RainCompanion(d)
	assert.False(t, ok)
}
