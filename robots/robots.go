// Package robots answers whether a URL may be fetched under its host's
// robots.txt.
package robots

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/engine"
)

// Agent evaluates robots.txt rules with caching and per-host overrides.
// It is safe for concurrent use.
type Agent struct {
	client    *http.Client
	userAgent string
	ttl       time.Duration
	respect   bool
	now       func() time.Time
	overrides map[string]struct{}
	store     *ruleStore

	// limiter paces robots.txt requests with the page fetches they precede.
	limiter engine.Waiter
}

// ruleStore is shared by an Agent and its WithLimiter copies.
type ruleStore struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	fetched time.Time
	rules   *robotstxt.RobotsData
}

// NewAgent builds an Agent. A nil client gets a 10s default.
func NewAgent(cfg config.RobotsConfig, userAgent string, client *http.Client) *Agent {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	overrides := make(map[string]struct{}, len(cfg.Overrides))
	for _, host := range cfg.Overrides {
		host = strings.ToLower(strings.TrimSpace(host))
		if host == "" {
			continue
		}
		overrides[host] = struct{}{}
	}

	return &Agent{
		client:    client,
		userAgent: userAgent,
		ttl:       ttl,
		respect:   cfg.Respect,
		now:       time.Now,
		overrides: overrides,
		store:     &ruleStore{entries: make(map[string]cacheEntry)},
	}
}

// WithLimiter returns a copy of a that waits on w before fetching
// robots.txt. Copies share the rule cache.
func (a *Agent) WithLimiter(w engine.Waiter) *Agent {
	c := *a
	c.limiter = w
	return &c
}

// Allowed reports whether rawURL may be fetched. Unparseable or relative
// URLs are refused; robots.txt that cannot be retrieved allows everything.
func (a *Agent) Allowed(ctx context.Context, rawURL string) bool {
	target, err := url.Parse(rawURL)
	if err != nil || !target.IsAbs() {
		return false
	}
	if !a.respect {
		return true
	}

	host := strings.ToLower(target.Hostname())
	if _, ok := a.overrides[host]; ok {
		return true
	}

	rules, err := a.rules(ctx, target)
	if err != nil {
		slog.Debug("robots.txt unavailable, allowing", "host", host, "error", err)
		return true
	}

	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	if target.RawQuery != "" {
		path += "?" + target.RawQuery
	}
	return rules.FindGroup(a.userAgent).Test(path)
}

func (a *Agent) rules(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	key := strings.ToLower(target.Scheme + "://" + target.Host)

	a.store.mu.RLock()
	entry, ok := a.store.entries[key]
	a.store.mu.RUnlock()
	if ok && a.now().Sub(entry.fetched) < a.ttl {
		return entry.rules, nil
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for limiter: %w", err)
		}
	}

	robotsURL := target.Scheme + "://" + target.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("robots returned status %d", resp.StatusCode)
	}

	// FromResponse maps 4xx to allow-all, which is cached like any rule set.
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	a.store.mu.Lock()
	a.store.entries[key] = cacheEntry{fetched: a.now(), rules: data}
	a.store.mu.Unlock()

	return data, nil
}
