package pages

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

var relativeURL = regexp.MustCompile(`\{\{\s*'([^']*)'\s*\|\s*relative_url\s*\}\}`)

// ResolveRelativeURLs expands Liquid relative_url filters against baseURL.
func ResolveRelativeURLs(text, baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	return relativeURL.ReplaceAllStringFunc(text, func(m string) string {
		p := relativeURL.FindStringSubmatch(m)[1]
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		return base + p
	})
}

// RenderPreview renders a storm page as a standalone HTML document so the
// embedded charts can be checked without running Jekyll.
func RenderPreview(pageText, baseURL string) ([]byte, error) {
	header, body, err := SplitFrontMatter(pageText)
	if err != nil {
		return nil, err
	}
	title := "Storm preview"
	if t, ok := header["title"].(string); ok && t != "" {
		title = t
	}

	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(ResolveRelativeURLs(body, baseURL)))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank | html.CompletePage
	opts := html.RendererOptions{
		Flags: htmlFlags,
		Title: title,
		Head:  []byte(fmt.Sprintf("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n<style>%s</style>\n", previewCSS)),
	}
	renderer := html.NewRenderer(opts)

	return markdown.Render(doc, renderer), nil
}

const previewCSS = `body { font-family: Arial, sans-serif; max-width: 960px; margin: 0 auto; padding: 1rem; }
.storm-plot-group { margin: 1rem 0; }
.storm-multi-panels__figure { position: relative; margin: 0; }
.storm-multi-panels__figure img { width: 100%; }
.storm-multi-panels__watermark { position: absolute; right: 1rem; bottom: 1rem; opacity: 0.4; }`
