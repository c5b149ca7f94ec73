package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/use-agent/scout/browser"
	"github.com/use-agent/scout/cache"
	"github.com/use-agent/scout/cleaner"
	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/engine"
	"github.com/use-agent/scout/explore"
	"github.com/use-agent/scout/feed"
	"github.com/use-agent/scout/rank"
	"github.com/use-agent/scout/robots"
	"golang.org/x/time/rate"
)

// services is everything the commands need, built once from config.
type services struct {
	browser  *browser.Browser
	cache    *cache.Cache
	explorer *cache.Explorer
	runner   *rank.Runner
	topics   *feed.Discoverer
}

// buildServices wires the fetch stack, extraction, exploration and ranking.
func buildServices(cfg *config.Config) (*services, error) {
	s := &services{}

	// ── 1. Fetch engines ────────────────────────────────────────────
	multi := cfg.Engine.EnableMultiEngine && cfg.Browser.Enabled
	httpEngine := engine.NewHTTPEngine(engine.HTTPOptions{
		UserAgent:          cfg.Fetch.UserAgent,
		MaxBodyBytes:       cfg.Fetch.MaxBodyBytes,
		RejectScriptShells: multi,
	})

	var eng engine.Engine = httpEngine
	if multi {
		b, err := browser.New(cfg.Browser, cfg.Fetch.UserAgent)
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		s.browser = b

		// The rod engines take the browser as a callback so engine/ never
		// imports browser/.
		engines := []engine.Engine{
			httpEngine,
			engine.NewRodEngine(b.Render, false),
			engine.NewRodEngine(b.Render, true),
		}
		memory := engine.NewDomainMemory(cfg.Engine.DomainMemoryTTL)
		eng = engine.NewDispatcher(engines, cfg.Engine.StageDelays, memory)
		slog.Info("multi-engine dispatcher enabled",
			"engines", len(engines),
			"delays", cfg.Engine.StageDelays,
		)
	}
	fetcher := engine.NewFetcher(eng, cfg.Fetch.Timeout)

	// ── 2. Extraction, robots and the exploration loop ──────────────
	extractor := cleaner.NewExtractor(cleaner.Options{
		Mode:             cfg.Extract.Mode,
		ExcludeSelectors: cfg.Extract.ExcludeSelectors,
		DetectLanguage:   cfg.Extract.DetectLanguage,
		MinChars:         cfg.Explore.MinBodyChars,
	})
	agent := robots.NewAgent(cfg.Robots, cfg.Fetch.UserAgent, &http.Client{Timeout: cfg.Fetch.Timeout})
	exploreOpts := explore.Options{
		CallsLimit:   cfg.Explore.CallsLimit,
		MaxReads:     cfg.Explore.MaxReads,
		MaxLinks:     cfg.Explore.MaxLinks,
		SearchLimit:  cfg.Explore.SearchLinksLimit,
		SnippetChars: cfg.Explore.SnippetChars,
		MinBodyChars: cfg.Explore.MinBodyChars,
	}
	controller := func(w engine.Waiter) *explore.Controller {
		return explore.New(fetcher.WithLimiter(w), extractor, agent.WithLimiter(w), exploreOpts)
	}

	// ── 3. Cache ────────────────────────────────────────────────────
	if cfg.Cache.Enabled {
		s.cache = cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}

	// ── 4. Batches share one limiter across concurrent workers ──────
	global := rate.NewLimiter(rate.Limit(cfg.Batch.RequestsPerSecond), cfg.Batch.Burst)
	s.explorer = cache.NewExplorer(controller(global), s.cache, 0)
	s.runner = rank.NewRunner(
		func(w engine.Waiter) explore.Explorer {
			return cache.NewExplorer(controller(w), s.cache, cfg.Cache.TTL)
		},
		global,
		rank.Config{
			Concurrency:     cfg.Batch.Concurrency,
			PolitenessDelay: cfg.Batch.PolitenessDelay,
			MinRelevance:    cfg.Batch.MinRelevance,
			MaxArticles:     cfg.Batch.MaxArticles,
			DedupDistance:   cfg.Batch.DedupDistance,
		},
	)

	// ── 5. Topic discovery ──────────────────────────────────────────
	s.topics = feed.NewDiscoverer(cfg.Feed.SearchURL, cfg.Fetch.UserAgent, cfg.Feed.Timeout)

	return s, nil
}

// Close releases the browser and stops the cache janitor.
func (s *services) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
	if s.browser != nil {
		s.browser.Close()
	}
}
