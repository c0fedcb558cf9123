// Package classifier talks to an optional external update classifier
// and blends its verdicts with the regex-derived signal. The rest of
// the application must keep working when the classifier is absent,
// slow, or failing.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request is the payload submitted for one tracked game and its
// candidate listings.
type Request struct {
	Subject    string             `json:"subject"`
	Context    string             `json:"context,omitempty"`
	Candidates []RequestCandidate `json:"candidates"`
}

// RequestCandidate is one listing submitted for classification.
type RequestCandidate struct {
	Title      string     `json:"title"`
	Link       string     `json:"link"`
	Similarity float64    `json:"similarity"`
	Date       *time.Time `json:"date,omitempty"`
}

// Verdict is the classifier's judgement of one candidate.
type Verdict struct {
	IsUpdate   bool    `json:"is_update"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Client calls the external classifier endpoint.
type Client struct {
	url     string
	client  HTTPClient
	timeout time.Duration
}

// NewClient creates a classifier client. An empty URL yields a disabled
// client.
func NewClient(url string, client HTTPClient, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{url: url, client: client, timeout: timeout}
}

// Enabled reports whether a classifier endpoint is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

// Classify submits all candidates for one subject and returns one
// verdict per candidate, in request order.
func (c *Client) Classify(ctx context.Context, req Request) ([]Verdict, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("classifier not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var verdicts []Verdict
	if err := json.Unmarshal(data, &verdicts); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(verdicts) != len(req.Candidates) {
		return nil, fmt.Errorf("got %d verdicts for %d candidates", len(verdicts), len(req.Candidates))
	}
	return verdicts, nil
}
