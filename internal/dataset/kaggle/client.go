// Package kaggle downloads the air quality dataset archive.
package kaggle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/pollutiontrends/pollutiontrends/internal/api/middleware"
	"github.com/pollutiontrends/pollutiontrends/internal/provider/resilience"
)

const (
	// DefaultDownloadURL is the default location of the dataset CSV export.
	DefaultDownloadURL = "https://storage.googleapis.com/kaggle-datasets-mirror/world-air-quality/air_quality.csv"

	// ProviderName identifies this provider.
	ProviderName = "kaggle"

	// datasetFilename is the name of the cached CSV file.
	datasetFilename = "air_quality.csv"
)

// ClientConfig holds configuration for the dataset download client.
type ClientConfig struct {
	// DownloadURL is the dataset URL (defaults to DefaultDownloadURL).
	DownloadURL string

	// CacheDir is where the downloaded CSV is stored. Defaults to
	// <user cache dir>/pollution-trends.
	CacheDir string

	// HTTPClient is the HTTP client to use (must implement HTTPDoer).
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Timeout for the download request (default: 60s).
	Timeout time.Duration

	// Metrics records cache and download metrics when set.
	Metrics *middleware.ProviderMetrics

	// Logger for download operations.
	Logger zerolog.Logger
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client downloads and caches the dataset CSV.
type Client struct {
	downloadURL string
	cacheDir    string
	httpClient  HTTPDoer
	metrics     *middleware.ProviderMetrics
	logger      zerolog.Logger
}

// NewClient creates a new dataset download client.
func NewClient(cfg ClientConfig) (*Client, error) {
	downloadURL := cfg.DownloadURL
	if downloadURL == "" {
		downloadURL = DefaultDownloadURL
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
		cacheDir = filepath.Join(base, "pollution-trends")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		client := resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         timeout,
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     10 * time.Second,
		})
		resilience.GlobalRegistry.Register(ProviderName, client)
		httpClient = client
	}

	return &Client{
		downloadURL: downloadURL,
		cacheDir:    cacheDir,
		httpClient:  httpClient,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}, nil
}

// EnsureDataset returns the path to the cached dataset CSV, downloading
// it first if no cached copy exists. The download happens at most once
// per cache dir; subsequent calls reuse the cached file.
func (c *Client) EnsureDataset(ctx context.Context) (string, error) {
	path := filepath.Join(c.cacheDir, datasetFilename)

	if _, err := os.Stat(path); err == nil {
		c.logger.Debug().Str("path", path).Msg("using cached dataset")
		if c.metrics != nil {
			c.metrics.RecordCacheHit(ProviderName, "dataset")
		}
		return path, nil
	}
	if c.metrics != nil {
		c.metrics.RecordCacheMiss(ProviderName, "dataset")
	}

	c.logger.Info().
		Str("url", c.downloadURL).
		Str("path", path).
		Msg("downloading dataset")

	start := time.Now()
	err := c.download(ctx, path)
	if c.metrics != nil {
		c.metrics.RecordRequest(ProviderName, "download", time.Since(start), err)
	}
	if err != nil {
		resilience.GlobalRegistry.RecordFailure(ProviderName, err)
		return "", err
	}
	resilience.GlobalRegistry.RecordSuccess(ProviderName)

	return path, nil
}

// download fetches the dataset and writes it atomically into the cache.
func (c *Client) download(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.downloadURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download dataset: unexpected status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.cacheDir, datasetFilename+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move dataset into cache: %w", err)
	}

	c.logger.Info().
		Int64("bytes", written).
		Str("path", path).
		Msg("dataset downloaded")

	return nil
}
