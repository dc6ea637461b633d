package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// postJSON sends payload to url and returns the response body. Non-2xx
// statuses are errors carrying a prefix of the body for diagnostics.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(respBody), snippetLen))
	}
	return respBody, nil
}

// throttle enforces a minimum delay between calls for backends with tight
// requests-per-minute limits.
func throttle(name string, lastCall time.Time, minInterval time.Duration) {
	if minInterval == 0 || lastCall.IsZero() {
		return
	}
	wait := minInterval - time.Since(lastCall)
	if wait > 0 {
		slog.Info("rate limit: waiting", slog.String("backend", name), slog.Duration("wait", wait))
		time.Sleep(wait)
	}
}
