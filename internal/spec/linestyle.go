package spec

import "strings"

// LineStyle is the normalized dash pattern of a series.
type LineStyle int

const (
	Solid LineStyle = iota
	Dashed
	DashDot
	Dotted
)

// ParseLineStyle accepts matplotlib codes ("-", "--", "-.", ":") and their
// long names. Anything else is solid.
func ParseLineStyle(s string) LineStyle {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "--", "dashed":
		return Dashed
	case "-.", "dashdot":
		return DashDot
	case ":", "dotted":
		return Dotted
	default:
		return Solid
	}
}

// Code returns the matplotlib code for the style.
func (l LineStyle) Code() string {
	switch l {
	case Dashed:
		return "--"
	case DashDot:
		return "-."
	case Dotted:
		return ":"
	default:
		return "-"
	}
}
