package miner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stormplot/internal/spec"
)

func boolPtr(v bool) *bool { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestMineGridWithTwinAndLoop(t *testing.T) {
	src := `
import pandas as pd
import matplotlib.pyplot as plt
import matplotlib.dates as mdates

df = pd.read_csv('data.csv')
temp = df['Temperature']
fig, axs = plt.subplots(2, 2, figsize=(14, 8), sharex=True)
fig.suptitle('Hurricane Ian')
axs[0, 0].plot(df['Date Time'], temp, label='Temp', color='red')
axs[0, 0].set_title('Temperature')
axs[0, 0].legend(loc='upper left')
ax2 = axs[0, 0].twinx()
ax2.plot(df['Date Time'], df['Humidity'], color='blue', linestyle='--', alpha=0.5)
ax2.set_ylabel('Humidity (%)', color='blue')
for ax in [axs[0, 1], axs[1, 0]]:
    ax.plot(df['Date Time'], df['Pressure'])
    ax.grid(True)
axs[1, 1].set_ylabel('Wind')
axs[1, 0].xaxis.set_major_formatter(mdates.DateFormatter('%m-%d %H'))
plt.tight_layout()
plt.savefig('ian_grid.png')
`
	want := []spec.Figure{{
		Outfile:     "ian_grid.png",
		Title:       "Hurricane Ian",
		XTickFormat: "%m-%d %H",
		Type:        spec.TypeGrid,
		Rows:        2,
		Cols:        2,
		ShareX:      true,
		Subplots: []spec.Subplot{
			{
				Row: 1, Col: 1,
				Title:     "Temperature",
				LegendLoc: "upper left",
				Series: []spec.Series{
					{Column: "Temperature", Label: "Temp", Color: "red", LineStyle: "-"},
					{Column: "Humidity", Color: "blue", LineStyle: "--", Alpha: floatPtr(0.5), Secondary: true},
				},
				SecondaryYLabel:      "Humidity (%)",
				SecondaryYLabelColor: "blue",
			},
			{Row: 1, Col: 2, Grid: boolPtr(true), Series: []spec.Series{{Column: "Pressure", LineStyle: "-"}}},
			{Row: 2, Col: 1, Grid: boolPtr(true), Series: []spec.Series{{Column: "Pressure", LineStyle: "-"}}},
			{Row: 2, Col: 2, YLabel: "Wind", Series: []spec.Series{}},
		},
	}}

	got := MineSource(src)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MineSource mismatch (-want +got):\n%s", diff)
	}
}

func TestMineSingleKeepsStateUntilConstantFilename(t *testing.T) {
	src := `
fig, ax = plt.subplots()
ax.plot(df['Date Time'], df['Rain Rate'], 'b-', label='Rain rate')
ax.set_ylabel('Rain Rate (in/hr)')
ax.set_xlabel('Time')
ax.set_title('Rain')
ax.legend()
name = get_name()
fig.savefig(name)
fig.savefig(f"{name}.png")
ax.tick_params(axis='y', labelcolor='C2')
plt.savefig('rain.png', dpi=150)
`
	want := []spec.Figure{{
		Outfile:     "rain.png",
		Title:       "Rain",
		XLabel:      "Time",
		Type:        spec.TypeSingle,
		YLabel:      "Rain Rate (in/hr)",
		YLabelColor: "#2ca02c",
		LegendLoc:   "best",
		Series:      []spec.Series{{Column: "Rain Rate", Label: "Rain rate", Color: "blue", LineStyle: "-"}},
	}}

	got := MineSource(src)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MineSource mismatch (-want +got):\n%s", diff)
	}
}

func TestMineTupleUnpackingAndFlatArrays(t *testing.T) {
	src := `
fig, (ax1, ax2) = plt.subplots(2, 1, sharex=True)
ax1.plot(df.index, df['Wind Speed'], 'C1--')
ax2.plot(df['Gust'])
plt.savefig('wind.png')

fig, axs = plt.subplots(1, 3)
cols = ['A', 'B', 'C']
for i, ax in enumerate(axs.flat):
    ax.plot(df[cols[i]], label=cols[i])
axs[-1].set_title('Last')
plt.savefig('three.png')
`
	got := MineSource(src)
	require.Len(t, got, 2)

	wind := got[0]
	assert.Equal(t, spec.TypeGrid, wind.Type)
	assert.Equal(t, 2, wind.Rows)
	assert.Equal(t, 1, wind.Cols)
	assert.True(t, wind.ShareX)
	require.Len(t, wind.Subplots, 2)
	assert.Equal(t, []spec.Series{{Column: "Wind Speed", Color: "#ff7f0e", LineStyle: "--"}}, wind.Subplots[0].Series)
	assert.Equal(t, 2, wind.Subplots[1].Row)
	assert.Equal(t, []spec.Series{{Column: "Gust", LineStyle: "-"}}, wind.Subplots[1].Series)

	three := got[1]
	assert.Equal(t, spec.TypeGrid, three.Type)
	assert.Equal(t, 1, three.Rows)
	assert.Equal(t, 3, three.Cols)
	require.Len(t, three.Subplots, 3)
	for i, col := range []string{"A", "B", "C"} {
		sp := three.Subplots[i]
		assert.Equal(t, 1, sp.Row)
		assert.Equal(t, i+1, sp.Col)
		assert.Equal(t, []spec.Series{{Column: col, Label: col, LineStyle: "-"}}, sp.Series)
	}
	assert.Equal(t, "Last", three.Subplots[2].Title)
}

func TestMinePyplotInterface(t *testing.T) {
	src := `
plt.figure(figsize=(10, 4))
plt.plot(df['Date Time'], df['Temp'], color='r')
plt.title('Temp')
plt.ylabel('F')
plt.grid()
plt.savefig('temp.png')
plt.savefig('empty.png')
`
	got := MineSource(src)
	require.Len(t, got, 2)

	want := spec.Figure{
		Outfile: "temp.png",
		Title:   "Temp",
		Type:    spec.TypeSingle,
		YLabel:  "F",
		Grid:    boolPtr(true),
		Series:  []spec.Series{{Column: "Temp", Color: "red", LineStyle: "-"}},
	}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("pyplot figure mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, spec.Figure{Outfile: "empty.png", Type: spec.TypeSingle}, got[1])
}

func TestMineColumnResolution(t *testing.T) {
	src := `
obs = pd.read_excel('obs.xlsx')
smooth = obs['Pressure'].rolling(3).mean()
fig, ax = plt.subplots()
ax.plot(obs['Date Time'], smooth)
ax.plot('Date Time', 'Wind', data=obs)
obs['Gust'].plot(ax=ax, secondary_y=True, style='k:')
ax.plot(obs['Date Time'], obs['Wind'] * 1.15)
plt.savefig('mixed.png')
`
	got := MineSource(src)
	require.Len(t, got, 1)
	fig := got[0]
	assert.Equal(t, spec.TypeSingle, fig.Type)
	require.Len(t, fig.Series, 4)
	assert.Equal(t, "Pressure", fig.Series[0].Column)
	assert.Equal(t, "Wind", fig.Series[1].Column)
	assert.Equal(t, "", fig.Series[2].Column, "arithmetic is not resolved")
	assert.Equal(t, spec.Series{Column: "Gust", Color: "black", LineStyle: ":", Secondary: true}, fig.Series[3])
}

func TestMineToleratesSyntaxErrors(t *testing.T) {
	src := `
fig, ax = plt.subplots()
ax.plot(df['Temp'])
x = = 2
if ready:
    ax.plot(df['Skipped'])
plt.savefig('temp.png')
`
	got := MineSource(src)
	require.Len(t, got, 1)
	require.Len(t, got[0].Series, 1)
	assert.Equal(t, "Temp", got[0].Series[0].Column)
}

func TestMineNotebookSharesDataframes(t *testing.T) {
	notebook := `{
  "cells": [
    {"cell_type": "markdown", "source": ["# Ian\n"]},
    {"cell_type": "code", "source": ["%matplotlib inline\n", "obs = pd.read_excel('x.xlsx')\n"]},
    {"cell_type": "code", "source": "fig, ax = plt.subplots()\nax.plot(obs['Pressure'], label='Pressure')\n!ls\nplt.savefig('p.png')\n"}
  ],
  "nbformat": 4
}`
	path := filepath.Join(t.TempDir(), "ian.ipynb")
	require.NoError(t, os.WriteFile(path, []byte(notebook), 0644))

	cells, err := LoadNotebook(path)
	require.NoError(t, err)
	require.Len(t, cells, 2)
	assert.Equal(t, "\nobs = pd.read_excel('x.xlsx')\n", cells[0])
	assert.NotContains(t, cells[1], "!ls")

	figures, err := MineNotebook(path)
	require.NoError(t, err)
	require.Len(t, figures, 1)
	assert.Equal(t, []spec.Series{{Column: "Pressure", Label: "Pressure", LineStyle: "-"}}, figures[0].Series)

	_, err = MineNotebook(filepath.Join(t.TempDir(), "missing.ipynb"))
	assert.Error(t, err)
}

func TestDecodeNotebookRejectsBadJSON(t *testing.T) {
	_, err := DecodeNotebook(strings.NewReader(`{"cells": [{"cell_type": "code", "source": 3}]}`))
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in        string
		color     string
		linestyle string
	}{
		{"r--", "red", "--"},
		{"--r", "red", "--"},
		{"k:", "black", ":"},
		{"C3-.", "#d62728", "-."},
		{"o-", "", "-"},
		{"g", "green", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		color, ls := parseFormat(tt.in)
		assert.Equal(t, tt.color, color, tt.in)
		assert.Equal(t, tt.linestyle, ls, tt.in)
	}
}

func TestNormalizeColor(t *testing.T) {
	assert.Equal(t, "blue", normalizeColor("b"))
	assert.Equal(t, "#1f77b4", normalizeColor("C0"))
	assert.Equal(t, "orange", normalizeColor("tab:orange"))
	assert.Equal(t, "#123456", normalizeColor("#123456"))
}

func TestKeyPosition(t *testing.T) {
	r, c := keyPosition("axs[1,2]__secondary")
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	r, c = keyPosition("ax")
	assert.Equal(t, 1, r)
	assert.Equal(t, 1, c)
}
