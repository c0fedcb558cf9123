// Package fetcher turns configured release-post feeds into the cycle's
// candidate listing stream.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"gamewatch/internal/model"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads and parses release-post feeds.
type Fetcher struct {
	client  HTTPClient
	log     *slog.Logger
	timeout time.Duration
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient, log *slog.Logger) *Fetcher {
	return &Fetcher{
		client:  client,
		log:     log,
		timeout: 30 * time.Second,
	}
}

// Fetch downloads and parses one feed.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "GameWatchBot/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// FetchCandidates pulls every configured feed and returns a
// link-deduplicated, freshness-ordered candidate list. One feed's
// failure is logged and skipped; the remaining feeds still contribute.
func (f *Fetcher) FetchCandidates(ctx context.Context, feedURLs []string, avoidRepacks bool) []model.CandidateListing {
	var all []model.CandidateListing
	seen := make(map[string]struct{})

	for _, feedURL := range feedURLs {
		if ctx.Err() != nil {
			break
		}
		feed, err := f.Fetch(ctx, feedURL)
		if err != nil {
			f.log.Error("fetch release feed", "url", feedURL, "error", err)
			continue
		}
		source := sourceHost(feedURL)
		for _, item := range feed.Items {
			c := toCandidate(item, source)
			if c.Link == "" || c.Title == "" {
				continue
			}
			if _, dup := seen[c.Link]; dup {
				continue
			}
			if avoidRepacks && IsRepack(c.Title) {
				continue
			}
			seen[c.Link] = struct{}{}
			all = append(all, c)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		ti, tj := all[i].Published, all[j].Published
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})
	return all
}

func toCandidate(item *gofeed.Item, source string) model.CandidateListing {
	c := model.CandidateListing{
		Title:     strings.TrimSpace(item.Title),
		Link:      item.Link,
		Source:    source,
		Published: item.PublishedParsed,
	}
	if item.Image != nil {
		c.ImageURL = item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if c.ImageURL == "" && strings.HasPrefix(enc.Type, "image/") {
			c.ImageURL = enc.URL
			continue
		}
		c.DownloadLinks = append(c.DownloadLinks, enc.URL)
	}
	desc := item.Description
	if len(desc) > 300 {
		desc = desc[:300] + "..."
	}
	c.Description = desc
	return c
}

// IsRepack reports a repack-tagged title, for the repack-avoidance
// pre-filter.
func IsRepack(title string) bool {
	return strings.Contains(strings.ToLower(title), "repack")
}

func sourceHost(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return feedURL
	}
	return u.Host
}
