package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxFeedBytes caps a search feed download.
const maxFeedBytes = 5 << 20

// Discoverer finds candidate seed URLs for a topic from a news search feed.
type Discoverer struct {
	client    *http.Client
	searchURL string
	userAgent string
}

// NewDiscoverer creates a Discoverer. searchURL must contain one %s for
// the query-escaped topic.
func NewDiscoverer(searchURL, userAgent string, timeout time.Duration) *Discoverer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Discoverer{
		client:    &http.Client{Timeout: timeout},
		searchURL: searchURL,
		userAgent: userAgent,
	}
}

// TopicURLs returns up to n distinct http(s) item links for topic, in feed
// order. The topic is sent as given. An unparseable feed yields no URLs
// rather than an error.
func (d *Discoverer) TopicURLs(ctx context.Context, topic string, n int) ([]string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, errors.New("feed: empty topic")
	}
	if n <= 0 {
		n = 5
	}

	endpoint := fmt.Sprintf(d.searchURL, url.QueryEscape(topic))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: build request: %w", err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("feed: search returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("feed: read: %w", err)
	}

	items, err := Parse(data)
	if err != nil {
		slog.Warn("feed unparseable, returning no URLs", "topic", topic, "error", err)
		return []string{}, nil
	}

	urls := make([]string, 0, n)
	seen := make(map[string]bool)
	for _, it := range items {
		if len(urls) >= n {
			break
		}
		u, err := url.Parse(it.Link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || seen[it.Link] {
			continue
		}
		seen[it.Link] = true
		urls = append(urls, it.Link)
	}

	slog.Info("topic urls discovered", "topic", topic, "items", len(items), "urls", len(urls))
	return urls, nil
}
