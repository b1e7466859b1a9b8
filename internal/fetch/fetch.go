// Package fetch downloads source documents over HTTP with bounded retries
// and a politeness rate limit.
package fetch

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const maxAttempts = 5

type Client struct {
	httpClient *http.Client
	limiter    *rateLimiter
}

func NewClient(timeout time.Duration, requestsPerSecond int) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    newRateLimiter(requestsPerSecond),
	}
}

// Download fetches rawURL and writes the body to outPath, creating parent
// directories as needed. Retryable statuses back off exponentially.
func (c *Client) Download(ctx context.Context, rawURL, outPath string) error {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, body, 0o644)
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		c.limiter.waitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/xml, */*")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < maxAttempts {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("fetch status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("fetch %s: status=%d", rawURL, resp.StatusCode)
		}

		return body, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("fetch %s failed", rawURL)
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
