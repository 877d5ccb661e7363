// Package fetchers downloads remote datasets and the tropical weather
// outlook feed.
package fetchers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"

	"stormplot/internal/dataset"
	"stormplot/internal/logger"
)

// DataFetcher handles fetching data from external sources
type DataFetcher struct {
	client *resty.Client
	parser *gofeed.Parser
	log    *logger.Logger
}

// NewDataFetcher creates a new data fetcher instance
func NewDataFetcher(timeout time.Duration) *DataFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(2 * time.Second)
	client.SetHeader("User-Agent", "stormplot")

	return &DataFetcher{
		client: client,
		parser: gofeed.NewParser(),
		log:    logger.WithComponent("fetchers"),
	}
}

// SetRetry overrides the retry policy.
func (f *DataFetcher) SetRetry(count int, wait time.Duration) {
	f.client.SetRetryCount(count)
	f.client.SetRetryWaitTime(wait)
}

func (f *DataFetcher) get(ctx context.Context, rawURL, what string) ([]byte, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", what, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", what, resp.StatusCode())
	}
	return resp.Body(), nil
}

// FetchDataset downloads a CSV or XLSX dataset. The format follows the
// extension of the URL path and defaults to CSV.
func (f *DataFetcher) FetchDataset(ctx context.Context, rawURL string) (*dataset.Dataset, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid dataset URL %q: %w", rawURL, err)
	}
	name := path.Base(u.Path)
	if path.Ext(name) == "" {
		name += ".csv"
	}

	body, err := f.get(ctx, rawURL, "dataset")
	if err != nil {
		return nil, err
	}
	data, err := dataset.Decode(name, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", rawURL, err)
	}

	f.log.Info("dataset fetched", map[string]interface{}{
		"url":     rawURL,
		"rows":    data.Len(),
		"columns": len(data.Names()),
	})
	return data, nil
}
