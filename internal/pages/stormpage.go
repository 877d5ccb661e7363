package pages

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"stormplot/internal/logger"
)

// FrontMatter is the YAML header of a storm page.
type FrontMatter struct {
	Layout    string `yaml:"layout"`
	Title     string `yaml:"title"`
	Season    string `yaml:"season"`
	Landfall  string `yaml:"landfall"`
	Permalink string `yaml:"permalink"`
	SortDate  string `yaml:"sort_date"`
	Overview  string `yaml:"overview"`
}

// SlugToTitle turns "2024-hurricane-helene" into "Hurricane Helene". The
// leading season is dropped.
func SlugToTitle(slug string) string {
	parts := strings.Split(slug, "-")
	if len(parts) <= 1 {
		return titleWords(strings.Fields(strings.ReplaceAll(slug, "_", " ")))
	}
	var words []string
	for _, p := range parts[1:] {
		words = append(words, strings.Fields(strings.ReplaceAll(p, "_", " "))...)
	}
	return titleWords(words)
}

func titleWords(words []string) string {
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// SlugToPermalink moves the season to the end: /storms/hurricane-helene-2024/.
func SlugToPermalink(slug string) string {
	year, rest, ok := strings.Cut(slug, "-")
	if !ok {
		return "/storms/" + slug + "/"
	}
	return "/storms/" + rest + "-" + year + "/"
}

// SlugToSeason returns the leading year of a slug, or "TBD".
func SlugToSeason(slug string) string {
	year, _, _ := strings.Cut(slug, "-")
	if year == "" || strings.Trim(year, "0123456789") != "" {
		return "TBD"
	}
	return year
}

// DefaultSortDate is January 1st of a four digit season.
func DefaultSortDate(season string) string {
	if len(season) == 4 && strings.Trim(season, "0123456789") == "" {
		return season + "-01-01"
	}
	return "1970-01-01"
}

// NewFrontMatter fills the header of a new storm page.
func NewFrontMatter(slug string) FrontMatter {
	season := SlugToSeason(slug)
	return FrontMatter{
		Layout:    "default",
		Title:     SlugToTitle(slug),
		Season:    season,
		Landfall:  "TBD",
		Permalink: SlugToPermalink(slug),
		SortDate:  DefaultSortDate(season),
		Overview:  "TBD.",
	}
}

// NewStormPage renders the container page written for a storm that has
// none yet.
func NewStormPage(slug string) (string, error) {
	fm := NewFrontMatter(slug)
	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(header)
	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("# %s (%s)\n\n", fm.Title, fm.Season))
	sb.WriteString("SummaryComingSoon\n")
	for _, section := range []string{"Overview", "Timeline", "Impacts", "Media"} {
		sb.WriteString(fmt.Sprintf("\n## %s\n\n%sComingSoon\n", section, section))
	}
	sb.WriteString(dataSection)
	return sb.String(), nil
}

const dataSection = "\n## Data\n\n" + DataPlaceholder + "\n\n" + MarkerStart + "\n" + MarkerEnd + "\n"

// EnsureStormPage makes sure dir/<slug>.md exists and carries the data
// markers, and returns its path. Existing pages are only ever appended to.
func EnsureStormPage(dir, slug string) (string, error) {
	log := logger.WithComponent("pages")
	pagePath := filepath.Join(dir, slug+".md")

	content, err := os.ReadFile(pagePath)
	if errors.Is(err, fs.ErrNotExist) {
		page, err := NewStormPage(slug)
		if err != nil {
			return "", err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		if err := os.WriteFile(pagePath, []byte(page), 0644); err != nil {
			return "", fmt.Errorf("failed to write page %s: %w", pagePath, err)
		}
		log.Info("storm page created", map[string]interface{}{"page": pagePath})
		return pagePath, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read page %s: %w", pagePath, err)
	}

	text := string(content)
	if strings.Contains(text, MarkerStart) && strings.Contains(text, MarkerEnd) {
		return pagePath, nil
	}
	text = strings.TrimRight(text, "\n") + "\n" + dataSection
	if err := os.WriteFile(pagePath, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to write page %s: %w", pagePath, err)
	}
	log.Info("data markers added", map[string]interface{}{"page": pagePath})
	return pagePath, nil
}

// SplitFrontMatter separates a leading YAML block from the page body.
// Pages without one return an empty header.
func SplitFrontMatter(text string) (map[string]interface{}, string, error) {
	if !strings.HasPrefix(text, "---\n") && !strings.HasPrefix(text, "---\r\n") {
		return nil, text, nil
	}
	rest := text[strings.Index(text, "\n")+1:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, text, nil
	}
	header := map[string]interface{}{}
	if err := yaml.Unmarshal([]byte(rest[:end]), &header); err != nil {
		return nil, text, fmt.Errorf("failed to decode front matter: %w", err)
	}
	body := rest[end+len("\n---"):]
	if i := strings.Index(body, "\n"); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}
	return header, body, nil
}
