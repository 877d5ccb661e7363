// Package hover models the highlight overlay of interactive charts: the
// per-trace point lookup, nearest-point matching and the throttled hover
// state machine the page script implements.
//
// Machine is not called at render time. The script in
// internal/plotly/templates/chart.html.tmpl mirrors its transitions in the
// browser, and Machine is the reference those transitions are tested against.
package hover

import (
	"math"
	"strings"
	"time"
)

// Point is one plotted sample. Time is in milliseconds of the wall clock.
type Point struct {
	Time int64
	X    string
	Y    float64
}

var timeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
	"2006-01-02",
}

// ParseTime converts an x value to milliseconds. Space-separated date and
// time are accepted, as Plotly reports them that way.
func ParseTime(x string) (int64, bool) {
	x = strings.Replace(strings.TrimSpace(x), " ", "T", 1)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, x); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}

// BuildLookup pairs x values with their y values, dropping missing values
// and unparsable times. Order is preserved.
func BuildLookup(xs []string, ys []*float64) []Point {
	var points []Point
	for i, x := range xs {
		if i >= len(ys) || ys[i] == nil || math.IsNaN(*ys[i]) {
			continue
		}
		ts, ok := ParseTime(x)
		if !ok {
			continue
		}
		points = append(points, Point{Time: ts, X: x, Y: *ys[i]})
	}
	return points
}

// Nearest returns the point matching target exactly, or else the one with
// the smallest time distance. Ties go to the earliest point.
func Nearest(points []Point, target int64) (Point, bool) {
	var best Point
	found := false
	bestDiff := int64(math.MaxInt64)
	for _, p := range points {
		diff := p.Time - target
		if diff < 0 {
			diff = -diff
		}
		if diff == 0 {
			return p, true
		}
		if diff < bestDiff {
			best, bestDiff, found = p, diff, true
		}
	}
	return best, found
}
