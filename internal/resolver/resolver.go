// Package resolver looks up authoritative version/build pairs in an
// external catalogue. Resolution is best-effort: a failed lookup only
// degrades confidence, it never fails a cycle.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Resolution is the catalogue's answer for one game: the missing axis
// filled in, or a date-version resolved to a true version/build pair.
type Resolution struct {
	Version string `json:"version"`
	Build   string `json:"build"`
}

// Client calls the cross-resolution lookup service.
type Client struct {
	url         string
	client      HTTPClient
	timeout     time.Duration
	concurrency int
}

// New creates a resolver client. An empty URL yields a disabled client.
func New(rawURL string, client HTTPClient, timeout time.Duration, concurrency int) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Client{url: rawURL, client: client, timeout: timeout, concurrency: concurrency}
}

// Enabled reports whether a lookup endpoint is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

// Resolve looks up one catalogue id, retrying transient failures with
// exponential backoff.
func (c *Client) Resolve(ctx context.Context, catalogueID string) (*Resolution, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("resolver not configured")
	}

	var res *Resolution
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := c.lookup(ctx, catalogueID)
		if err != nil {
			return retry.RetryableError(err)
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ResolveAll resolves many catalogue ids with a bounded concurrency
// fan-out. Individual failures are dropped from the result map.
func (c *Client) ResolveAll(ctx context.Context, ids []string) map[string]*Resolution {
	results := make(map[string]*Resolution, len(ids))
	if !c.Enabled() || len(ids) == 0 {
		return results
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			res, err := c.Resolve(ctx, id)
			if err != nil {
				return nil // best-effort; caller proceeds without it
			}
			mu.Lock()
			results[id] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Client) lookup(ctx context.Context, catalogueID string) (*Resolution, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.url + "?id=" + url.QueryEscape(catalogueID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var res Resolution
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &res, nil
}
