// Package dataset loads tabular storm observations keyed by a time column.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimeColumnCandidates lists accepted time headers in priority order.
var TimeColumnCandidates = []string{"Date Time", "Datetime", "DateTime", "Timestamp"}

// ErrMissingTimeColumn is returned when no header matches a time candidate.
var ErrMissingTimeColumn = errors.New("could not determine time column, expected one of: " +
	strings.Join(TimeColumnCandidates, ", "))

const (
	// TimeLayout is the fixed layout of time cells, %m/%d/%Y %H:%M.
	TimeLayout = "1/2/2006 15:04"
	// ISOLayout is the layout of emitted timestamps.
	ISOLayout = "2006-01-02T15:04:05"
)

// Dataset is a table of optional float columns aligned with Times.
// Every column has exactly Len() entries; nil marks a missing value.
type Dataset struct {
	TimeColumn string
	Times      []string

	stamps  []time.Time
	names   []string
	columns map[string][]*float64
}

// Len is the number of rows.
func (d *Dataset) Len() int {
	return len(d.Times)
}

// Names returns the value columns in header order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Has reports whether the column exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.columns[name]
	return ok
}

// Column returns the values of a column.
func (d *Dataset) Column(name string) ([]*float64, bool) {
	values, ok := d.columns[name]
	return values, ok
}

// Time returns the parsed timestamp of row i. Timestamps carry no zone.
func (d *Dataset) Time(i int) time.Time {
	return d.stamps[i]
}

// Stamps returns all parsed timestamps.
func (d *Dataset) Stamps() []time.Time {
	out := make([]time.Time, len(d.stamps))
	copy(out, d.stamps)
	return out
}

// Float wraps a value for use in a column.
func Float(v float64) *float64 {
	return &v
}

// New builds a dataset from already-parsed parts. It is mostly useful in tests.
func New(times []time.Time, names []string, columns map[string][]*float64) (*Dataset, error) {
	d := &Dataset{columns: make(map[string][]*float64, len(names))}
	for _, ts := range times {
		d.stamps = append(d.stamps, ts)
		d.Times = append(d.Times, ts.Format(ISOLayout))
	}
	for _, name := range names {
		values := columns[name]
		if len(values) != len(times) {
			return nil, fmt.Errorf("column %q has %d values for %d timestamps", name, len(values), len(times))
		}
		d.names = append(d.names, name)
		d.columns[name] = values
	}
	return d, nil
}

// ParseValue converts a cell to a float. Blank, unparsable and non-finite
// cells yield nil.
func ParseValue(cell string) *float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(cell, "_", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// FindTimeColumn returns the index of the highest priority time header.
func FindTimeColumn(header []string) (int, string, error) {
	for _, candidate := range TimeColumnCandidates {
		for i, name := range header {
			if name == candidate {
				return i, candidate, nil
			}
		}
	}
	return -1, "", ErrMissingTimeColumn
}

type timeParser func(cell string) (time.Time, error)

func parseTimeCell(cell string) (time.Time, error) {
	return time.Parse(TimeLayout, cell)
}

// build assembles a dataset from a header and raw rows. Rows with a blank
// time cell are skipped; short rows are padded with missing values.
func build(header []string, rows [][]string, parseTime timeParser) (*Dataset, error) {
	d := &Dataset{columns: make(map[string][]*float64)}
	if len(header) == 0 {
		return d, nil
	}
	timeIdx, timeName, err := FindTimeColumn(header)
	if err != nil {
		return nil, err
	}
	d.TimeColumn = timeName

	// Duplicate headers resolve to the rightmost cell.
	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == timeIdx {
			continue
		}
		if _, seen := index[name]; !seen {
			d.names = append(d.names, name)
		}
		index[name] = i
	}
	for _, name := range d.names {
		d.columns[name] = []*float64{}
	}

	for rowNum, row := range rows {
		if timeIdx >= len(row) {
			continue
		}
		rawTime := strings.TrimSpace(row[timeIdx])
		if rawTime == "" {
			continue
		}
		ts, err := parseTime(rawTime)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid %s value %q: %w", rowNum+2, timeName, rawTime, err)
		}
		d.stamps = append(d.stamps, ts)
		d.Times = append(d.Times, ts.Format(ISOLayout))
		for _, name := range d.names {
			var v *float64
			if i := index[name]; i < len(row) {
				v = ParseValue(row[i])
			}
			d.columns[name] = append(d.columns[name], v)
		}
	}
	return d, nil
}
