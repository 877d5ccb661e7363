package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/sethvargo/go-envconfig"
)

// Storage modes accepted by STORAGE_MODE
const (
	StorageLocal = "local"
	StorageGCS   = "gcs"
)

// DefaultPlotlyCDN is the Plotly bundle referenced by generated chart pages
const DefaultPlotlyCDN = "https://cdn.plot.ly/plotly-2.31.1.min.js"

// Config holds all configuration for the storm chart pipeline
type Config struct {
	// Site layout, relative to the repository root
	RepoRoot        string `env:"STORMPLOT_REPO_ROOT,default=."`
	DataDir         string `env:"STORMPLOT_DATA_DIR,default=data/storms"`
	NotebooksDir    string `env:"STORMPLOT_NOTEBOOKS_DIR,default=analysis/notebooks"`
	SpecsDir        string `env:"STORMPLOT_SPECS_DIR,default=build/specs"`
	PlotsDir        string `env:"STORMPLOT_PLOTS_DIR,default=assets/plots"`
	StormsDir       string `env:"STORMPLOT_STORMS_DIR,default=_storms"`
	PostsIncoming   string `env:"STORMPLOT_POSTS_INCOMING,default=incoming/posts"`
	PostsDir        string `env:"STORMPLOT_POSTS_DIR,default=_posts"`
	DocsAssetsDir   string `env:"STORMPLOT_DOCS_ASSETS_DIR,default=assets/docs"`
	OutlookDataFile string `env:"STORMPLOT_OUTLOOK_FILE,default=_data/outlook.yml"`

	// Rendering
	DisplayTimezone string `env:"DISPLAY_TIMEZONE,default=America/New_York"`
	PlotlyCDN       string `env:"PLOTLY_CDN,default=https://cdn.plot.ly/plotly-2.31.1.min.js"`
	SiteWatermark   string `env:"SITE_WATERMARK"`
	SiteBaseURL     string `env:"SITE_BASEURL"`

	// Artifact storage
	StorageMode string `env:"STORAGE_MODE,default=local"`
	GCSBucket   string `env:"GCS_BUCKET"`
	GCSPrefix   string `env:"GCS_PREFIX"`

	// OpenAI configuration, only used for post summaries
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL,default=gpt-4.1-mini"`

	// Remote sources
	OutlookFeedURL string        `env:"OUTLOOK_FEED_URL,default=https://www.nhc.noaa.gov/index-at.xml"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT,default=30s"`

	// Batch metrics textfile, written after `process` when set
	MetricsFile string `env:"METRICS_FILE"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks combinations envconfig cannot express
func (c *Config) Validate() error {
	switch c.StorageMode {
	case StorageLocal:
	case StorageGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required when STORAGE_MODE=%s", StorageGCS)
		}
	default:
		return fmt.Errorf("unsupported STORAGE_MODE %q", c.StorageMode)
	}
	if _, err := time.LoadLocation(c.DisplayTimezone); err != nil {
		return fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", c.DisplayTimezone, err)
	}
	return nil
}

// Path joins a repository-relative directory onto RepoRoot
func (c *Config) Path(rel string, elem ...string) string {
	parts := append([]string{c.RepoRoot, rel}, elem...)
	return filepath.Join(parts...)
}

// Location returns the display timezone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
