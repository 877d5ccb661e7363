package plotly

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	grob "github.com/MetalBlueberry/go-plotly/generated/v2.31.1/graph_objects"
)

//go:embed templates/chart.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/chart.html.tmpl"))

// PageMeta describes the standalone page around a chart.
type PageMeta struct {
	Title     string
	PlotlyCDN string
	Version   string
}

// pageData represents the data structure for the chart template
type pageData struct {
	Title     string
	PlotlyCDN string
	Version   string
	Figure    template.JS
	Config    template.JS
}

// WriteHTML writes fig as a standalone HTML page.
func WriteHTML(w io.Writer, fig *Figure, meta PageMeta) error {
	figureJSON, err := json.Marshal(struct {
		Data   []*grob.Scatter `json:"data"`
		Layout *Layout         `json:"layout"`
	}{fig.Data, fig.Layout})
	if err != nil {
		return fmt.Errorf("failed to encode figure: %w", err)
	}
	configJSON, err := json.Marshal(fig.Config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	data := pageData{
		Title:     meta.Title,
		PlotlyCDN: meta.PlotlyCDN,
		Version:   meta.Version,
		Figure:    template.JS(figureJSON),
		Config:    template.JS(configJSON),
	}
	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render chart page: %w", err)
	}
	return nil
}

// RenderHTML returns the page as bytes.
func RenderHTML(fig *Figure, meta PageMeta) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, fig, meta); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
