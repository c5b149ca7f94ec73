package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultUserAgent is a current desktop Chrome identity.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// DefaultFeedSearchURL is the news RSS search endpoint used for topic discovery.
// The single %s receives the query-escaped topic.
const DefaultFeedSearchURL = "https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Fetch     FetchConfig
	Engine    EngineConfig
	Browser   BrowserConfig
	Explore   ExploreConfig
	Extract   ExtractConfig
	Batch     BatchConfig
	Robots    RobotsConfig
	Feed      FeedConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	LLM       LLMConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// FetchConfig controls single page fetches.
type FetchConfig struct {
	// Timeout bounds one outbound request.
	Timeout time.Duration // default: 15s

	UserAgent string

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64 // default: 10 MiB
}

// EngineConfig controls the multi-engine dispatcher.
type EngineConfig struct {
	// EnableMultiEngine toggles the dispatcher. When false only the HTTP
	// engine is used.
	EnableMultiEngine bool // default: true

	// StageDelays is the staged start delay for each engine tier.
	StageDelays []time.Duration // default: [0s, 3s]

	// DomainMemoryTTL is how long a host's winning engine is remembered.
	DomainMemoryTTL time.Duration // default: 1h
}

// BrowserConfig controls the optional headless browser tier.
type BrowserConfig struct {
	Enabled bool // default: false

	Headless bool // default: true

	// PoolSize is the page pool capacity (max concurrent tabs).
	PoolSize int // default: 4

	NoSandbox bool

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	Proxy string

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// ExploreConfig controls one seed-URL exploration.
type ExploreConfig struct {
	// CallsLimit is the hard action budget (browse, read and evaluate combined).
	CallsLimit int // default: 6

	// MaxReads is the soft cap on articles read per exploration.
	MaxReads int // default: 2

	MaxLinks         int // default: 100
	SearchLinksLimit int // default: 50

	// SnippetChars is how much body text the relevance scorer sees.
	SnippetChars int // default: 500

	// MinBodyChars is the shortest body treated as a successful extraction.
	MinBodyChars int // default: 100
}

// ExtractConfig controls article extraction.
type ExtractConfig struct {
	// Mode picks the structured strategy: "readability" or "auto", which
	// races readability against the pruning scorer.
	Mode string // default: "readability"

	// ExcludeSelectors are removed from the page before any strategy runs.
	ExcludeSelectors []string

	DetectLanguage bool // default: true
}

// BatchConfig controls scrape-and-rank batches.
type BatchConfig struct {
	Concurrency int // default: 3

	// RequestsPerSecond and Burst size the limiter shared by concurrent workers.
	RequestsPerSecond float64 // default: 2
	Burst             int     // default: 2

	// PolitenessDelay is the pause between fetches when running sequentially.
	PolitenessDelay time.Duration // default: 1s

	MinRelevance float64 // default: 0.3
	MaxArticles  int     // default: 5

	// DedupDistance is the SimHash hamming distance under which two bodies
	// are considered the same story. 0 disables dedup.
	DedupDistance int // default: 3

	MaxURLs int // default: 50
}

// RobotsConfig controls robots.txt handling.
type RobotsConfig struct {
	Respect   bool          // default: true
	CacheTTL  time.Duration // default: 30m
	Overrides []string
}

// FeedConfig controls topic URL discovery.
type FeedConfig struct {
	SearchURL string
	Timeout   time.Duration // default: 10s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	APIKeys []string
}

// RateLimitConfig controls per-key API rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// CacheConfig controls the exploration outcome cache.
type CacheConfig struct {
	Enabled    bool          // default: true
	MaxEntries int           // default: 1000
	TTL        time.Duration // default: 15m
}

// LLMConfig holds defaults for the script writer.
type LLMConfig struct {
	BaseURL string // default: "https://api.openai.com/v1"
	Model   string // default: "gpt-4o-mini"
	APIKey  string
	Timeout time.Duration // default: 60s
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"

	// File, when set, also writes logs to a rotating file.
	File       string
	MaxSizeMB  int // default: 50
	MaxBackups int // default: 3
	MaxAgeDays int // default: 14
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SCOUT_HOST", "0.0.0.0"),
			Port: envIntOr("SCOUT_PORT", 8080),
			Mode: envOr("SCOUT_MODE", "release"),
		},
		Fetch: FetchConfig{
			Timeout:      envDurationOr("SCOUT_FETCH_TIMEOUT", 15*time.Second),
			UserAgent:    envOr("SCOUT_USER_AGENT", DefaultUserAgent),
			MaxBodyBytes: int64(envIntOr("SCOUT_MAX_BODY_BYTES", 10<<20)),
		},
		Engine: EngineConfig{
			EnableMultiEngine: envBoolOr("SCOUT_MULTI_ENGINE", true),
			StageDelays:       envDurationSliceOr("SCOUT_ENGINE_STAGE_DELAYS", []time.Duration{0, 3 * time.Second}),
			DomainMemoryTTL:   envDurationOr("SCOUT_DOMAIN_MEMORY_TTL", time.Hour),
		},
		Browser: BrowserConfig{
			Enabled:    envBoolOr("SCOUT_BROWSER_ENABLED", false),
			Headless:   envBoolOr("SCOUT_HEADLESS", true),
			PoolSize:   envIntOr("SCOUT_BROWSER_POOL_SIZE", 4),
			NoSandbox:  envBoolOr("SCOUT_NO_SANDBOX", false),
			BrowserBin: os.Getenv("SCOUT_BROWSER_BIN"),
			Proxy:      os.Getenv("SCOUT_PROXY"),
			BlockedResourceTypes: envSliceOr("SCOUT_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		Explore: ExploreConfig{
			CallsLimit:       envIntOr("SCOUT_CALLS_LIMIT", 6),
			MaxReads:         envIntOr("SCOUT_MAX_READS", 2),
			MaxLinks:         envIntOr("SCOUT_MAX_LINKS", 100),
			SearchLinksLimit: envIntOr("SCOUT_SEARCH_LINKS_LIMIT", 50),
			SnippetChars:     envIntOr("SCOUT_SNIPPET_CHARS", 500),
			MinBodyChars:     envIntOr("SCOUT_MIN_BODY_CHARS", 100),
		},
		Extract: ExtractConfig{
			Mode:             envOr("SCOUT_EXTRACT_MODE", "readability"),
			ExcludeSelectors: envSliceOr("SCOUT_EXCLUDE_SELECTORS", nil),
			DetectLanguage:   envBoolOr("SCOUT_DETECT_LANGUAGE", true),
		},
		Batch: BatchConfig{
			Concurrency:       envIntOr("SCOUT_BATCH_CONCURRENCY", 3),
			RequestsPerSecond: envFloatOr("SCOUT_RATE_RPS", 2.0),
			Burst:             envIntOr("SCOUT_RATE_BURST", 2),
			PolitenessDelay:   envDurationOr("SCOUT_POLITENESS_DELAY", time.Second),
			MinRelevance:      envFloatOr("SCOUT_MIN_RELEVANCE", 0.3),
			MaxArticles:       envIntOr("SCOUT_MAX_ARTICLES", 5),
			DedupDistance:     envIntOr("SCOUT_DEDUP_DISTANCE", 3),
			MaxURLs:           envIntOr("SCOUT_MAX_BATCH_URLS", 50),
		},
		Robots: RobotsConfig{
			Respect:   envBoolOr("SCOUT_RESPECT_ROBOTS", true),
			CacheTTL:  envDurationOr("SCOUT_ROBOTS_TTL", 30*time.Minute),
			Overrides: envSliceOr("SCOUT_ROBOTS_OVERRIDES", nil),
		},
		Feed: FeedConfig{
			SearchURL: envOr("SCOUT_FEED_SEARCH_URL", DefaultFeedSearchURL),
			Timeout:   envDurationOr("SCOUT_FEED_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SCOUT_AUTH_ENABLED", true),
			APIKeys: envSliceOr("SCOUT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SCOUT_RATE_LIMIT_RPS", 5.0),
			Burst:             envIntOr("SCOUT_RATE_LIMIT_BURST", 10),
		},
		Cache: CacheConfig{
			Enabled:    envBoolOr("SCOUT_CACHE_ENABLED", true),
			MaxEntries: envIntOr("SCOUT_CACHE_MAX_ENTRIES", 1000),
			TTL:        envDurationOr("SCOUT_CACHE_TTL", 15*time.Minute),
		},
		LLM: LLMConfig{
			BaseURL: envOr("SCOUT_LLM_BASE_URL", "https://api.openai.com/v1"),
			Model:   envOr("SCOUT_LLM_MODEL", "gpt-4o-mini"),
			APIKey:  os.Getenv("SCOUT_LLM_API_KEY"),
			Timeout: envDurationOr("SCOUT_LLM_TIMEOUT", 60*time.Second),
		},
		Log: LogConfig{
			Level:      envOr("SCOUT_LOG_LEVEL", "info"),
			Format:     envOr("SCOUT_LOG_FORMAT", "json"),
			File:       os.Getenv("SCOUT_LOG_FILE"),
			MaxSizeMB:  envIntOr("SCOUT_LOG_MAX_SIZE_MB", 50),
			MaxBackups: envIntOr("SCOUT_LOG_MAX_BACKUPS", 3),
			MaxAgeDays: envIntOr("SCOUT_LOG_MAX_AGE_DAYS", 14),
		},
	}
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
