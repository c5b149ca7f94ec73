package models

// ArticleResult is one article as returned by the API.
type ArticleResult struct {
	URL            string             `json:"url"`
	SeedURL        string             `json:"seed_url"`
	Title          string             `json:"title"`
	Content        string             `json:"content"`
	RelevanceScore float64            `json:"relevance_score"`
	Reason         string             `json:"reason"`
	Strategy       ExtractionStrategy `json:"extraction_strategy"`
	Language       string             `json:"language,omitempty"`

	// Tokens is an estimate of Content's token count.
	Tokens int `json:"tokens"`
}

// ActionRecord is one step taken by an exploration.
type ActionRecord struct {
	Action string `json:"action"` // "browse", "read", "evaluate"
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// ExploreResponse is the response for POST /api/v1/explore.
type ExploreResponse struct {
	Success bool `json:"success"`

	// Found is false when no article could be extracted at all.
	Found bool `json:"found"`

	Article *ArticleResult    `json:"article,omitempty"`
	Verdict *RelevanceVerdict `json:"verdict,omitempty"`

	// State is the terminal phase: "accepted" or "exhausted".
	State      string `json:"state"`
	StopReason string `json:"stop_reason"`
	CallsMade  int    `json:"calls_made"`

	Trace []ActionRecord `json:"trace,omitempty"`

	Timing TimingInfo `json:"timing"`

	// CacheStatus is "hit", "miss", or empty when caching was not requested.
	CacheStatus string `json:"cache_status,omitempty"`

	Error *ErrorDetail `json:"error,omitempty"`
}

// RankResponse is the response for POST /api/v1/rank.
type RankResponse struct {
	Success  bool            `json:"success"`
	Topic    string          `json:"topic"`
	Articles []ArticleResult `json:"articles"`

	// Total is the number of seed URLs; Explored how many finished.
	Total    int  `json:"total"`
	Explored int  `json:"explored"`
	Canceled bool `json:"canceled,omitempty"`

	Timing TimingInfo   `json:"timing"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// TopicsResponse is the response for POST /api/v1/topics.
type TopicsResponse struct {
	Success bool         `json:"success"`
	Topic   string       `json:"topic"`
	URLs    []string     `json:"urls"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ScriptResponse is the response for POST /api/v1/script.
type ScriptResponse struct {
	Success bool            `json:"success"`
	Topic   string          `json:"topic"`
	Script  string          `json:"script,omitempty"`
	Sources []ArticleResult `json:"sources,omitempty"`
	Usage   *LLMUsage       `json:"llm_usage,omitempty"`
	Timing  TimingInfo      `json:"timing"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

// LLMUsage reports token usage from the script writer.
type LLMUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// ExploreMs is the time spent fetching and extracting.
	ExploreMs int64 `json:"explore_ms,omitempty"`

	// WritingMs is the time spent in the script writer.
	WritingMs int64 `json:"writing_ms,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string      `json:"status"` // "healthy" or "degraded"
	Uptime    string      `json:"uptime"`
	PoolStats *PoolStats  `json:"pool_stats,omitempty"`
	Cache     *CacheStats `json:"cache,omitempty"`
	Version   string      `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
	BrowserPID  int `json:"browser_pid"`
}

// CacheStats reports the exploration cache.
type CacheStats struct {
	Entries    int    `json:"entries"`
	MaxEntries int    `json:"max_entries"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
}
