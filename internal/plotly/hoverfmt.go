package plotly

import (
	"math"
	"regexp"
	"strings"

	"stormplot/internal/dataset"
)

// PressureFormat is the hover number format of barometric series.
const PressureFormat = ".1f"

var unitSuffix = regexp.MustCompile(`\(([^()]*)\)\s*$`)

var pressureUnits = map[string]bool{
	"mb":   true,
	"mbar": true,
	"hpa":  true,
	"inhg": true,
}

// UnitFromLabel returns the parenthesized suffix of a label, or the whole
// label when there is none. "Temperature (°F)" gives "°F".
func UnitFromLabel(label string) string {
	if unitSuffix.MatchString(label) {
		_, unit := splitUnit(label)
		return unit
	}
	return strings.TrimSpace(label)
}

// splitUnit separates "Rain Accum (in)" into "Rain Accum" and "in".
func splitUnit(label string) (string, string) {
	loc := unitSuffix.FindStringSubmatchIndex(label)
	if loc == nil {
		return strings.TrimSpace(label), ""
	}
	return strings.TrimSpace(label[:loc[0]]), strings.TrimSpace(label[loc[2]:loc[3]])
}

// HoverFormat returns PressureFormat when any of the labels mentions
// pressure or carries a barometric unit, and "" otherwise.
func HoverFormat(labels ...string) string {
	for _, label := range labels {
		if label == "" {
			continue
		}
		if strings.Contains(strings.ToLower(label), "pressure") {
			return PressureFormat
		}
		if pressureUnits[strings.ToLower(UnitFromLabel(label))] {
			return PressureFormat
		}
	}
	return ""
}

// isRainRate reports whether a series plots a rain rate.
func isRainRate(names ...string) bool {
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), "rain rate") {
			return true
		}
	}
	return false
}

const monotonicTolerance = 1e-6

// RainCompanion finds the accumulation column shown next to a rain rate
// series. Columns already cumulative are forward filled; incremental ones
// are summed. It returns the derived values and the source column name.
func RainCompanion(data *dataset.Dataset) ([]*float64, string, bool) {
	for _, name := range data.Names() {
		lower := strings.ToLower(name)
		if !strings.Contains(lower, "rain accum") {
			continue
		}
		values, _ := data.Column(name)
		total := strings.Contains(lower, "total")
		if !total && countValues(values) <= 1 {
			continue
		}
		if total || nonDecreasing(values) {
			return forwardFill(values), name, true
		}
		return runningSum(values), name, true
	}
	return nil, "", false
}

func countValues(values []*float64) int {
	n := 0
	for _, v := range values {
		if finite(v) {
			n++
		}
	}
	return n
}

// nonDecreasing counts gaps as zero.
func nonDecreasing(values []*float64) bool {
	prev := math.Inf(-1)
	for _, v := range values {
		cur := 0.0
		if finite(v) {
			cur = *v
		}
		if cur < prev-monotonicTolerance {
			return false
		}
		prev = cur
	}
	return true
}

// forwardFill repeats the last value over gaps. Leading gaps stay empty.
func forwardFill(values []*float64) []*float64 {
	out := make([]*float64, len(values))
	var last *float64
	for i, v := range values {
		if finite(v) {
			x := *v
			last = &x
		}
		if last != nil {
			x := *last
			out[i] = &x
		}
	}
	return out
}

// runningSum treats gaps as zero and emits the sum at every row.
func runningSum(values []*float64) []*float64 {
	out := make([]*float64, len(values))
	sum := 0.0
	for i, v := range values {
		if finite(v) {
			sum += *v
		}
		x := sum
		out[i] = &x
	}
	return out
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
