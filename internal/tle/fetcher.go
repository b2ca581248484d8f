package tle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxBodyBytes caps a TLE download. A full CelesTrak group is a few MB.
const maxBodyBytes = 16 << 20

// Fetcher retrieves raw TLE data from a remote source.
type Fetcher struct {
	sourceURL  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher for the given source URL.
func NewFetcher(sourceURL string, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		sourceURL:  sourceURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With("component", "tle"),
	}
}

// SourceURL returns the configured source URL.
func (f *Fetcher) SourceURL() string {
	return f.sourceURL
}

// Fetch performs an HTTP GET to retrieve raw TLE data.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching TLE data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, f.sourceURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("TLE response exceeds %d byte limit", maxBodyBytes)
	}

	f.logger.Info("fetched TLE data", "source_url", f.sourceURL, "bytes", len(body), "duration_ms", time.Since(start).Milliseconds())
	return body, nil
}

// FetchEntries fetches and parses the source.
func (f *Fetcher) FetchEntries(ctx context.Context) ([]Entry, error) {
	data, err := f.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(data), f.logger)
}
