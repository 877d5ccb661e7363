package posts

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"

	"stormplot/internal/config"
	"stormplot/internal/logger"
)

// Summarizer writes a short teaser for a post. Failures fall back to the
// summary taken from the post text.
type Summarizer interface {
	Summarize(ctx context.Context, title, text string) (string, error)
}

// FrontMatter is the YAML header of a generated post.
type FrontMatter struct {
	Layout    string `yaml:"layout"`
	Title     string `yaml:"title"`
	Date      string `yaml:"date"`
	Summary   string `yaml:"summary,omitempty"`
	Thumb     string `yaml:"thumb,omitempty"`
	ThumbAlt  string `yaml:"thumb_alt,omitempty"`
	YouTubeID string `yaml:"youtube_id,omitempty"`
}

// Processor turns the drafts in the incoming directory into posts.
type Processor struct {
	incomingDir string
	postsDir    string
	assetsDir   string
	assetsURL   string
	summarizer  Summarizer
	md          goldmark.Markdown
	log         *logger.Logger
}

// NewProcessor creates a processor for the repository layout in cfg.
// summarizer may be nil.
func NewProcessor(cfg *config.Config, summarizer Summarizer) *Processor {
	return &Processor{
		incomingDir: cfg.Path(cfg.PostsIncoming),
		postsDir:    cfg.Path(cfg.PostsDir),
		assetsDir:   cfg.Path(cfg.DocsAssetsDir),
		assetsURL:   "/" + strings.Trim(filepath.ToSlash(cfg.DocsAssetsDir), "/"),
		summarizer:  summarizer,
		md:          newMarkdown(),
		log:         logger.WithComponent("posts"),
	}
}

// ProcessAll converts every draft in name order and returns the written
// post paths. The first failing draft stops the run.
func (p *Processor) ProcessAll(ctx context.Context) ([]string, error) {
	drafts, err := filepath.Glob(filepath.Join(p.incomingDir, "*.docx"))
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	if len(drafts) == 0 {
		p.log.Info("no DOCX posts found", map[string]interface{}{"dir": p.incomingDir})
		return nil, nil
	}
	sort.Strings(drafts)

	var written []string
	for _, draft := range drafts {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		out, err := p.ProcessDoc(ctx, draft)
		if err != nil {
			return written, fmt.Errorf("failed to process %s: %w", draft, err)
		}
		written = append(written, out)
	}
	return written, nil
}

// ProcessDoc converts one draft. Its media directory is recreated from
// scratch so re-running replaces images of earlier conversions.
func (p *Processor) ProcessDoc(ctx context.Context, draft string) (string, error) {
	meta, err := ParseFilename(draft)
	if err != nil {
		return "", err
	}
	doc, err := ReadDocx(draft)
	if err != nil {
		return "", err
	}

	mediaDir := filepath.Join(p.assetsDir, meta.Slug, "media")
	if err := os.RemoveAll(filepath.Join(p.assetsDir, meta.Slug)); err != nil {
		return "", fmt.Errorf("failed to clear assets for %s: %w", meta.Slug, err)
	}
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", mediaDir, err)
	}
	for _, img := range doc.Images {
		if err := os.WriteFile(filepath.Join(mediaDir, img.Name), img.Data, 0644); err != nil {
			return "", fmt.Errorf("failed to write image %s: %w", img.Name, err)
		}
	}

	body, err := BuildBody(p.md, doc.Markdown, path.Join(p.assetsURL, meta.Slug, "media"))
	if err != nil {
		return "", err
	}
	summary := p.summarize(ctx, meta.Title, body.Summary, body.HTML)

	fm := FrontMatter{
		Layout:    "default",
		Title:     meta.Title,
		Date:      meta.DateTime,
		Summary:   summary,
		Thumb:     body.Thumb,
		YouTubeID: body.YouTubeID,
	}
	if body.Thumb != "" {
		fm.ThumbAlt = meta.Title
	}
	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("failed to marshal front matter: %w", err)
	}

	if err := os.MkdirAll(p.postsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", p.postsDir, err)
	}
	postPath := filepath.Join(p.postsDir, meta.Date+"-"+meta.Slug+".html")
	content := "---\n" + string(header) + "---\n" + body.HTML + "\n"
	if err := os.WriteFile(postPath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write post %s: %w", postPath, err)
	}

	p.log.Info("post written", map[string]interface{}{
		"post":    postPath,
		"images":  len(doc.Images),
		"youtube": body.YouTubeID != "",
	})
	return postPath, nil
}

func (p *Processor) summarize(ctx context.Context, title, fallback, bodyHTML string) string {
	if p.summarizer == nil {
		return fallback
	}
	text := strings.Join(strings.Fields(tagRe.ReplaceAllString(bodyHTML, " ")), " ")
	if text == "" {
		return fallback
	}
	summary, err := p.summarizer.Summarize(ctx, title, text)
	if err != nil {
		p.log.Warn("summary generation failed, using post text", map[string]interface{}{
			"title": title,
			"error": err.Error(),
		})
		return fallback
	}
	if cleaned := CleanSummary(summary); cleaned != "" {
		return cleaned
	}
	return fallback
}
