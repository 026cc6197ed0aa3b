// Package origin fetches remote streaming resources (manifests and caption
// documents) on behalf of the interceptor and the caption proxy.
package origin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// ErrOriginFetch wraps any network or HTTP failure talking to the origin.
// It is scoped to the single failing request; the playback session carries
// on and the player's own retry governs re-requests.
var ErrOriginFetch = errors.New("origin fetch failed")

const (
	defaultTimeout = 30 * time.Second
	fetchAttempts  = 3
	retryDelay     = 200 * time.Millisecond
)

// Client is a thin origin HTTP client shared by all fetch sites. Transient
// transport errors are retried a few times; HTTP error statuses are not.
type Client struct {
	http *http.Client
}

// NewClient builds a Client with the given per-request timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Fetch GETs rawURL and returns the body and the origin-reported content
// type (empty when the origin sent none).
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	var (
		body        []byte
		contentType string
	)

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= http.StatusBadRequest {
				return retry.Unrecoverable(fmt.Errorf("status %d", resp.StatusCode))
			}

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			contentType = resp.Header.Get("Content-Type")
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(fetchAttempts),
		retry.Delay(retryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, "", fmt.Errorf("%w: get %s: %v", ErrOriginFetch, rawURL, err)
	}

	return body, contentType, nil
}
