package fetchers

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// OutlookItem is one entry of the tropical weather outlook feed.
type OutlookItem struct {
	Title     string `yaml:"title"`
	Link      string `yaml:"link,omitempty"`
	Published string `yaml:"published,omitempty"`
	Summary   string `yaml:"summary,omitempty"`
}

// OutlookData is the Jekyll data file written from the feed.
type OutlookData struct {
	Updated string        `yaml:"updated"`
	Source  string        `yaml:"source"`
	Items   []OutlookItem `yaml:"items"`
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

// FetchOutlook downloads and parses the RSS or Atom outlook feed.
func (f *DataFetcher) FetchOutlook(ctx context.Context, feedURL string) ([]OutlookItem, error) {
	body, err := f.get(ctx, feedURL, "outlook feed")
	if err != nil {
		return nil, err
	}
	feed, err := f.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse outlook feed: %w", err)
	}

	items := make([]OutlookItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		item := OutlookItem{
			Title:   strings.TrimSpace(it.Title),
			Link:    it.Link,
			Summary: plainText(it.Description),
		}
		if it.PublishedParsed != nil {
			item.Published = it.PublishedParsed.UTC().Format(time.RFC3339)
		} else {
			item.Published = it.Published
		}
		items = append(items, item)
	}

	f.log.Info("outlook fetched", map[string]interface{}{
		"url":   feedURL,
		"items": len(items),
	})
	return items, nil
}

// MarshalOutlook renders the outlook data file.
func MarshalOutlook(source string, items []OutlookItem, updated time.Time) ([]byte, error) {
	out, err := yaml.Marshal(OutlookData{
		Updated: updated.UTC().Format(time.RFC3339),
		Source:  source,
		Items:   items,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal outlook: %w", err)
	}
	return out, nil
}

func plainText(s string) string {
	text := html.UnescapeString(tagRe.ReplaceAllString(s, " "))
	return strings.Join(strings.Fields(text), " ")
}
