// Package fetch retrieves rendered page content and caches per-URL results
// so interrupted crawls can resume without refetching or re-extracting.
package fetch

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// FetchOpts control rendering for one request.
type FetchOpts struct {
	// Render requests JavaScript rendering before the HTML is returned.
	Render bool
	// AutoScroll scrolls the rendered page to the bottom a few times to
	// trigger infinite-scroll loading.
	AutoScroll bool
}

// A Fetcher retrieves the content of a web page.
type Fetcher interface {
	Fetch(url string, opts FetchOpts) (string, error)
}

// A FetchError is an unrecoverable page retrieval failure. The crawl logs it,
// skips the page, and continues.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

const (
	scraperAPIEndpoint = "https://api.scraperapi.com/"
	fetchAttempts      = 3
)

// scrollInstructions is the render instruction set sent for infinite-scroll
// pages: scroll to the bottom, wait for the network to settle, three times.
var scrollInstructions = []map[string]interface{}{
	{
		"type": "loop",
		"for":  3,
		"instructions": []map[string]interface{}{
			{"type": "scroll", "direction": "y", "value": "bottom"},
			{"type": "wait_for_event", "event": "networkidle", "timeout": 10},
		},
	},
}

// The ScraperAPIFetcher proxies requests through a rendering service so
// JavaScript-heavy pages arrive as complete HTML.
type ScraperAPIFetcher struct {
	APIKey string

	endpoint string
	client   *http.Client
	sleep    func(time.Duration)
}

func NewScraperAPIFetcher(apiKey string, timeout time.Duration) *ScraperAPIFetcher {
	return &ScraperAPIFetcher{
		APIKey:   apiKey,
		endpoint: scraperAPIEndpoint,
		client:   &http.Client{Timeout: timeout},
		sleep:    time.Sleep,
	}
}

func (s *ScraperAPIFetcher) Fetch(urlStr string, opts FetchOpts) (string, error) {
	logger := slog.With(slog.String("fetcher", "scraperapi"), slog.String("url", urlStr))
	logger.Debug("fetching page", slog.Bool("render", opts.Render), slog.Bool("auto_scroll", opts.AutoScroll))

	var lastErr error
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		body, err := s.fetchOnce(urlStr, opts)
		if err == nil {
			logger.Info("fetched page", slog.Int("bytes", len(body)))
			return body, nil
		}
		lastErr = err
		logger.Warn("fetch attempt failed", slog.Int("attempt", attempt), slog.Any("error", err))
		if attempt < fetchAttempts {
			wait := time.Duration(1<<attempt) * 2 * time.Second
			s.sleep(wait)
		}
	}
	return "", lastErr
}

func (s *ScraperAPIFetcher) fetchOnce(urlStr string, opts FetchOpts) (string, error) {
	reqURL := s.endpoint + "?url=" + url.QueryEscape(urlStr)
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return "", &FetchError{URL: urlStr, Err: err}
	}
	req.Header.Set("x-sapi-api_key", s.APIKey)
	req.Header.Set("x-sapi-render", fmt.Sprintf("%t", opts.Render))
	if opts.AutoScroll {
		instructions, err := json.Marshal(scrollInstructions)
		if err != nil {
			return "", &FetchError{URL: urlStr, Err: err}
		}
		req.Header.Set("x-sapi-instruction_set", string(instructions))
	}

	res, err := s.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: urlStr, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", &FetchError{URL: urlStr, StatusCode: res.StatusCode}
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", &FetchError{URL: urlStr, Err: err}
	}
	return string(body), nil
}

// The FileFetcher reads page content from local files, for offline runs and
// tests.
type FileFetcher struct{}

func (f *FileFetcher) Fetch(urlStr string, opts FetchOpts) (string, error) {
	fpath := strings.TrimPrefix(urlStr, "file://")
	bs, err := os.ReadFile(fpath)
	if err != nil {
		return "", &FetchError{URL: urlStr, Err: err}
	}
	return string(bs), nil
}
