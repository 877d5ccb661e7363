// Package pages maintains the Jekyll storm pages that host rendered charts.
package pages

import (
	"fmt"
	"html"
	"os"
	"path"
	"strings"

	"stormplot/internal/spec"
)

// Markers delimit the generated region of a storm page.
const (
	MarkerStart = "<!-- DATA-SECTION:START -->"
	MarkerEnd   = "<!-- DATA-SECTION:END -->"

	// DataPlaceholder is left in new pages until charts are embedded.
	DataPlaceholder = "DataComingSoon"
)

// RenderDataBlock builds the Data section for a set of figures. Grid figures
// link their static SVG, everything else is embedded as an iframe of its
// interactive page. publicDir is the site path the artifacts are served from.
func RenderDataBlock(figures []spec.Figure, publicDir, watermark string) string {
	var groups []string
	for _, fig := range figures {
		if fig.Stem() == "" {
			continue
		}
		if fig.IsGrid() {
			groups = append(groups, imageGroup(fig, publicDir, watermark))
		} else {
			groups = append(groups, iframeGroup(fig, publicDir))
		}
	}

	var sb strings.Builder
	sb.WriteString("<h2>Data</h2>\n")
	sb.WriteString("<div class=\"storm-data\">\n")
	if len(groups) > 0 {
		sb.WriteString(strings.Join(groups, "\n"))
		sb.WriteString("\n")
	}
	sb.WriteString("</div>")
	return sb.String()
}

// Artifacts lists the chart files, relative to the plots directory, that
// RenderDataBlock links for figures.
func Artifacts(figures []spec.Figure) []string {
	var names []string
	for _, fig := range figures {
		if fig.Stem() == "" {
			continue
		}
		if fig.IsGrid() {
			names = append(names, fig.Stem()+".svg")
		} else {
			names = append(names, fig.Stem()+".html")
		}
	}
	return names
}

// RelativeURL renders a Liquid relative_url link to a file under publicDir.
func RelativeURL(publicDir, name string) string {
	rel := strings.TrimLeft(path.Join(strings.ReplaceAll(publicDir, "\\", "/"), name), "/")
	return fmt.Sprintf("{{ '/%s' | relative_url }}", rel)
}

func figureTitle(fig spec.Figure) string {
	if fig.Title != "" {
		return fig.Title
	}
	return strings.ReplaceAll(fig.Stem(), "_", " ")
}

func imageGroup(fig spec.Figure, publicDir, watermark string) string {
	alt := html.EscapeString("Multi-panel plot for " + figureTitle(fig))
	src := RelativeURL(publicDir, fig.Stem()+".svg")

	var body strings.Builder
	body.WriteString("      <figure class=\"storm-multi-panels__figure\">\n")
	if watermark != "" {
		body.WriteString(fmt.Sprintf("        <span class=\"storm-multi-panels__watermark\" aria-hidden=\"true\">%s</span>\n",
			html.EscapeString(watermark)))
	}
	body.WriteString(fmt.Sprintf("        <img src=\"%s\" alt=\"%s\" loading=\"lazy\">\n", src, alt))
	body.WriteString("      </figure>")

	return plotGroup("Multi-Panel Plots", body.String(), true, "storm-multi-panels")
}

func iframeGroup(fig spec.Figure, publicDir string) string {
	src := RelativeURL(publicDir, fig.Stem()+".html")
	body := fmt.Sprintf("      <iframe src=\"%s\" width=\"100%%\" height=\"520\" loading=\"lazy\" style=\"border:0\"></iframe>", src)
	return plotGroup(html.EscapeString(figureTitle(fig)), body, false, "")
}

func plotGroup(summary, body string, open bool, extraClass string) string {
	openAttr := ""
	if open {
		openAttr = " open"
	}
	classes := strings.TrimSpace("storm-plot " + extraClass)
	return fmt.Sprintf("  <details class=\"storm-plot-group\"%s>\n"+
		"    <summary class=\"storm-plot-summary\">%s</summary>\n"+
		"    <div class=\"%s\">\n"+
		"%s\n"+
		"    </div>\n"+
		"  </details>", openAttr, summary, classes, body)
}

// ReplaceDataSection drops the data placeholder and puts block between the
// markers, appending a marker region when the page has none. Applying the
// same block twice gives the same text.
func ReplaceDataSection(text, block string) string {
	if strings.Contains(text, DataPlaceholder) {
		text = strings.ReplaceAll(text, "\n"+DataPlaceholder+"\n", "\n")
		text = strings.ReplaceAll(text, DataPlaceholder, "")
	}

	// A stray END ahead of START is left alone; only the END that closes START counts.
	if start := strings.Index(text, MarkerStart); start >= 0 {
		bodyStart := start + len(MarkerStart)
		if end := strings.Index(text[bodyStart:], MarkerEnd); end >= 0 {
			return text[:bodyStart] + "\n\n" + block + "\n" + text[bodyStart+end:]
		}
	}

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text + "\n" + MarkerStart + "\n\n" + block + "\n" + MarkerEnd + "\n"
}

// UpdatePage rewrites the Data section of the page at pagePath.
func UpdatePage(pagePath, block string) error {
	content, err := os.ReadFile(pagePath)
	if err != nil {
		return fmt.Errorf("failed to read page %s: %w", pagePath, err)
	}
	updated := ReplaceDataSection(string(content), block)
	if updated == string(content) {
		return nil
	}
	if err := os.WriteFile(pagePath, []byte(updated), 0644); err != nil {
		return fmt.Errorf("failed to write page %s: %w", pagePath, err)
	}
	return nil
}
