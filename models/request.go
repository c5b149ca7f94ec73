package models

// ExploreRequest is the payload for POST /api/v1/explore.
type ExploreRequest struct {
	// URL is the seed page to explore from. Required.
	URL string `json:"url" binding:"required,url"`

	// Topic is the subject the article must be about. Required.
	Topic string `json:"topic" binding:"required"`

	// CallsLimit overrides the action budget for this exploration.
	CallsLimit int `json:"calls_limit,omitempty" binding:"omitempty,min=1,max=30"`

	// OutputFormat controls the article content field.
	// Allowed: "text" (default), "markdown", "markdown_citations".
	OutputFormat string `json:"output_format,omitempty" binding:"omitempty,oneof=text markdown markdown_citations"`

	// MaxAge allows a cached outcome younger than this many milliseconds.
	// 0 disables the cache lookup.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`

	// IncludeTrace adds the per-action trace to the response.
	IncludeTrace bool `json:"include_trace,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *ExploreRequest) Defaults() {
	if r.OutputFormat == "" {
		r.OutputFormat = "text"
	}
}

// RankRequest is the payload for POST /api/v1/rank and /api/v1/rank/async.
type RankRequest struct {
	// URLs are the seed pages, one exploration each. Required.
	URLs []string `json:"urls" binding:"required,min=1,dive,required"`

	// Topic is the subject used for scoring. Required.
	Topic string `json:"topic" binding:"required"`

	// MinRelevance drops articles scoring below it.
	MinRelevance *float64 `json:"min_relevance,omitempty" binding:"omitempty,min=0,max=1"`

	// MaxArticles caps the ranked output.
	MaxArticles int `json:"max_articles,omitempty" binding:"omitempty,min=1,max=100"`

	// Concurrency bounds parallel explorations. 1 runs sequentially with a
	// politeness delay between fetches.
	Concurrency int `json:"concurrency,omitempty" binding:"omitempty,min=1,max=32"`

	CallsLimit int `json:"calls_limit,omitempty" binding:"omitempty,min=1,max=30"`

	OutputFormat string `json:"output_format,omitempty" binding:"omitempty,oneof=text markdown markdown_citations"`

	// WebhookURL is notified when an async rank job finishes.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`

	// WebhookSecret signs the webhook payload (HMAC-SHA256).
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// RankDefaults carries the server-side defaults for a RankRequest.
type RankDefaults struct {
	MinRelevance float64
	MaxArticles  int
	Concurrency  int
}

// Defaults applies default values to unset fields.
func (r *RankRequest) Defaults(d RankDefaults) {
	if r.MinRelevance == nil {
		v := d.MinRelevance
		r.MinRelevance = &v
	}
	if r.MaxArticles == 0 {
		r.MaxArticles = d.MaxArticles
	}
	if r.Concurrency == 0 {
		r.Concurrency = d.Concurrency
	}
	if r.OutputFormat == "" {
		r.OutputFormat = "text"
	}
}

// TopicsRequest is the payload for POST /api/v1/topics.
type TopicsRequest struct {
	Topic string `json:"topic" binding:"required"`

	// NumURLs is how many article links to return. Default: 5.
	NumURLs int `json:"num_urls,omitempty" binding:"omitempty,min=1,max=50"`
}

// Defaults applies default values to unset fields.
func (r *TopicsRequest) Defaults() {
	if r.NumURLs == 0 {
		r.NumURLs = 5
	}
}

// ScriptRequest is the payload for POST /api/v1/script. The ranked
// articles are handed to an OpenAI-compatible model that writes a
// narrated script from them.
type ScriptRequest struct {
	RankRequest

	// DurationMinutes is the target spoken length of the script. Default: 5.
	DurationMinutes int `json:"duration_minutes,omitempty" binding:"omitempty,min=1,max=60"`

	// LLMAPIKey overrides the server key (BYOK).
	LLMAPIKey string `json:"llm_api_key,omitempty"`

	LLMModel   string `json:"llm_model,omitempty"`
	LLMBaseURL string `json:"llm_base_url,omitempty"`
}
