package miner

import (
	"strconv"
	"strings"
)

// Single-letter matplotlib colors.
var shortColors = map[string]string{
	"b": "blue",
	"g": "green",
	"r": "red",
	"c": "cyan",
	"m": "magenta",
	"y": "yellow",
	"k": "black",
	"w": "white",
}

// tab10 is the default matplotlib color cycle, addressed as C0..C9.
var tab10 = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// legendCodes maps numeric legend locations to their names.
var legendCodes = map[int64]string{
	0:  "best",
	1:  "upper right",
	2:  "upper left",
	3:  "lower left",
	4:  "lower right",
	5:  "right",
	6:  "center left",
	7:  "center right",
	8:  "lower center",
	9:  "upper center",
	10: "center",
}

// normalizeColor expands matplotlib shorthands into colors a browser or
// SVG renderer understands. Other values pass through.
func normalizeColor(c string) string {
	c = strings.TrimSpace(c)
	if name, ok := shortColors[c]; ok {
		return name
	}
	if len(c) == 2 && (c[0] == 'C' || c[0] == 'c') && c[1] >= '0' && c[1] <= '9' {
		idx, _ := strconv.Atoi(c[1:])
		return tab10[idx]
	}
	if strings.HasPrefix(c, "tab:") {
		return strings.TrimPrefix(c, "tab:")
	}
	return c
}

// parseFormat splits a plot format string such as "r--" or "C1:" into a
// color and a line style. Marker characters are ignored.
func parseFormat(format string) (color, linestyle string) {
	rest := format
	for rest != "" {
		switch {
		case strings.HasPrefix(rest, "--"), strings.HasPrefix(rest, "-."):
			linestyle, rest = rest[:2], rest[2:]
		case rest[0] == '-' || rest[0] == ':':
			linestyle, rest = rest[:1], rest[1:]
		case rest[0] == 'C' && len(rest) > 1 && rest[1] >= '0' && rest[1] <= '9':
			color, rest = normalizeColor(rest[:2]), rest[2:]
		default:
			if name, ok := shortColors[rest[:1]]; ok {
				color = name
			}
			rest = rest[1:]
		}
	}
	return color, linestyle
}
