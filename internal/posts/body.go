package posts

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// SummaryLimit is the longest summary, in characters, before truncation.
const SummaryLimit = 160

var (
	youtubeRe       = regexp.MustCompile(`(?:youtu\.be/|youtube\.com/(?:watch\?v=|embed/))([A-Za-z0-9_-]{11})`)
	youtubeAnchorRe = regexp.MustCompile(`(?is)<a\b[^>]*href="[^"]*(?:youtu\.be/|youtube\.com/(?:watch\?v=|embed/))[A-Za-z0-9_-]{11}[^"]*"[^>]*>.*?</a>`)
	bareSchemeRe    = regexp.MustCompile(`https?://([^A-Za-z0-9])`)
	emptyParaRe     = regexp.MustCompile(`(?i)<p(?: [^>]*)?>\s*(?:&nbsp;|<br\s*/?>|\s)*</p>`)
	imgRe           = regexp.MustCompile(`(?i)(<img\b[^>]*\bsrc=")([^"]+)("[^>]*>)`)
	tagRe           = regexp.MustCompile(`<[^>]+>`)
)

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			gmhtml.WithUnsafe(),
		),
	)
}

// Body is a post body ready to be written.
type Body struct {
	HTML      string
	Summary   string
	Thumb     string
	YouTubeID string
}

// BuildBody converts Markdown to the post HTML. The first YouTube link
// becomes the post video and is removed from the text. Image sources are
// rewritten under mediaURL and the first one is the thumbnail.
func BuildBody(md goldmark.Markdown, markdown, mediaURL string) (*Body, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("failed to convert markdown: %w", err)
	}
	out := &Body{}
	text := buf.String()

	if m := youtubeRe.FindStringSubmatch(text); m != nil {
		out.YouTubeID = m[1]
		text = youtubeAnchorRe.ReplaceAllString(text, "")
		text = youtubeRe.ReplaceAllString(text, "")
		text = bareSchemeRe.ReplaceAllString(text, "$1")
	}
	text = emptyParaRe.ReplaceAllString(text, "")

	mediaURL = strings.TrimRight(mediaURL, "/")
	text = imgRe.ReplaceAllStringFunc(text, func(tag string) string {
		m := imgRe.FindStringSubmatch(tag)
		src := m[2]
		if !strings.HasPrefix(src, "/") && !strings.Contains(src, "://") {
			src = mediaURL + "/" + src
		}
		if out.Thumb == "" {
			out.Thumb = src
		}
		return m[1] + "{{ '" + src + "' | relative_url }}" + m[3]
	})

	out.HTML = strings.TrimSpace(text)
	out.Summary = CleanSummary(html.UnescapeString(tagRe.ReplaceAllString(text, " ")))
	return out, nil
}

// CleanSummary collapses whitespace and cuts text to SummaryLimit
// characters, at a word boundary when one is close enough, ending with an
// ellipsis.
func CleanSummary(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	runes := []rune(collapsed)
	if len(runes) <= SummaryLimit {
		return collapsed
	}
	truncated := string(runes[:SummaryLimit])
	if i := strings.LastIndex(truncated, " "); i >= 0 && len([]rune(truncated[:i])) > 40 {
		truncated = truncated[:i]
	}
	return strings.TrimRight(truncated, " \t\n") + "…"
}
