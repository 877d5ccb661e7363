package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func values(t *testing.T, d *Dataset, name string) []interface{} {
	t.Helper()
	col, ok := d.Column(name)
	require.True(t, ok, "column %s", name)
	out := make([]interface{}, len(col))
	for i, v := range col {
		if v == nil {
			out[i] = nil
		} else {
			out[i] = *v
		}
	}
	return out
}

func TestLoadCSV(t *testing.T) {
	csvText := "\ufeffDate Time,Temperature,Rain Rate,Notes\n" +
		"09/28/2022 14:00,81.5,0.10,calm\n" +
		",80,0.2,no time\n" +
		"9/28/2022 14:05, 80.9 ,,x\n" +
		"09/28/2022 14:10,bad\n"

	d, err := LoadCSV(strings.NewReader(csvText))
	require.NoError(t, err)

	assert.Equal(t, "Date Time", d.TimeColumn)
	assert.Equal(t, []string{"2022-09-28T14:00:00", "2022-09-28T14:05:00", "2022-09-28T14:10:00"}, d.Times)
	assert.Equal(t, []string{"Temperature", "Rain Rate", "Notes"}, d.Names())
	assert.Equal(t, []interface{}{81.5, 80.9, nil}, values(t, d, "Temperature"))
	assert.Equal(t, []interface{}{0.10, nil, nil}, values(t, d, "Rain Rate"))
	assert.Equal(t, []interface{}{nil, nil, nil}, values(t, d, "Notes"))
	assert.Equal(t, time.Date(2022, 9, 28, 14, 5, 0, 0, time.UTC), d.Time(1))
}

func TestColumnsAlignWithTimes(t *testing.T) {
	inputs := []string{
		"Timestamp,a,b\n01/01/2023 00:00,1\n01/01/2023 00:10,1,2,3\n",
		"Datetime,a\n",
		"DateTime,a,a\n01/01/2023 00:00,1,2\n",
	}
	for _, in := range inputs {
		d, err := LoadCSV(strings.NewReader(in))
		require.NoError(t, err)
		for _, name := range d.Names() {
			col, _ := d.Column(name)
			assert.Len(t, col, d.Len(), "column %s in %q", name, in)
		}
	}
}

func TestDuplicateHeaderUsesRightmostCell(t *testing.T) {
	d, err := LoadCSV(strings.NewReader("DateTime,a,a\n01/01/2023 00:00,1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, d.Names())
	assert.Equal(t, []interface{}{2.0}, values(t, d, "a"))
}

func TestTimeColumnPriority(t *testing.T) {
	d, err := LoadCSV(strings.NewReader("Timestamp,Date Time,v\nignored,01/02/2023 03:04,5\n"))
	require.NoError(t, err)
	assert.Equal(t, "Date Time", d.TimeColumn)
	assert.Equal(t, []string{"Timestamp", "v"}, d.Names())
	assert.Equal(t, []string{"2023-01-02T03:04:00"}, d.Times)
}

func TestMissingTimeColumn(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("When,v\n01/01/2023 00:00,1\n"))
	assert.True(t, errors.Is(err, ErrMissingTimeColumn))
}

func TestInvalidTimeIsFatal(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("Date Time,v\n2023-01-01,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestEmptyInput(t *testing.T) {
	d, err := LoadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, d.Len())
	assert.Empty(t, d.Names())
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want interface{}
	}{
		{"1.5", 1.5},
		{" -2 ", -2.0},
		{"1e3", 1000.0},
		{"1_000", 1000.0},
		{"", nil},
		{"n/a", nil},
		{"nan", nil},
		{"inf", nil},
	}
	for _, tt := range tests {
		got := ParseValue(tt.in)
		if tt.want == nil {
			assert.Nil(t, got, "input %q", tt.in)
			continue
		}
		require.NotNil(t, got, "input %q", tt.in)
		assert.Equal(t, tt.want, *got)
	}
}

func TestLoadXLSX(t *testing.T) {
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]interface{}{"Date Time", "Pressure", "Wind"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]interface{}{time.Date(2022, 9, 28, 14, 0, 0, 0, time.UTC), 990.4, 55}))
	require.NoError(t, book.SetSheetRow(sheet, "A3", &[]interface{}{"09/28/2022 14:15", 989.9}))

	path := filepath.Join(t.TempDir(), "ian.xlsx")
	require.NoError(t, book.SaveAs(path))
	require.NoError(t, book.Close())

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"2022-09-28T14:00:00", "2022-09-28T14:15:00"}, d.Times)
	assert.Equal(t, []interface{}{990.4, 989.9}, values(t, d, "Pressure"))
	assert.Equal(t, []interface{}{55.0, nil}, values(t, d, "Wind"))
}

func TestLoadDispatchesOnExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date Time,v\n01/01/2023 00:00,1\n"), 0644))
	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestNewValidatesLengths(t *testing.T) {
	ts := []time.Time{time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}
	_, err := New(ts, []string{"a"}, map[string][]*float64{"a": {Float(1), Float(2)}})
	assert.Error(t, err)

	d, err := New(ts, []string{"a"}, map[string][]*float64{"a": {Float(1)}})
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-01-01T00:00:00"}, d.Times)
}
