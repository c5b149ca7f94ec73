// Package explore runs the bounded browse, read and evaluate loop that
// turns one seed URL into at most one relevant article.
package explore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"unicode/utf8"

	"github.com/use-agent/scout/cleaner"
	"github.com/use-agent/scout/engine"
	"github.com/use-agent/scout/models"
	"github.com/use-agent/scout/relevance"
)

// Defaults for Options fields left at zero.
const (
	DefaultCallsLimit   = 6
	DefaultMaxReads     = 2
	DefaultSnippetChars = 500
)

// Fetcher retrieves one page. *engine.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) engine.PageFetchResult
}

// Extractor turns raw HTML into an article. *cleaner.Extractor satisfies it.
type Extractor interface {
	Extract(rawHTML, sourceURL string) models.ExtractedArticle
}

// Robots decides whether a candidate may be read. *robots.Agent satisfies it.
type Robots interface {
	Allowed(ctx context.Context, rawURL string) bool
}

// Explorer runs one exploration. callsLimit <= 0 uses the configured budget.
type Explorer interface {
	Explore(ctx context.Context, seedURL, topic string, callsLimit int) Outcome
}

// Options tunes a Controller.
type Options struct {
	// CallsLimit is the hard budget of browse, read and evaluate actions.
	CallsLimit int

	// MaxReads caps how many articles are read before giving up.
	MaxReads int

	MaxLinks     int
	SearchLimit  int
	SnippetChars int

	// MinBodyChars is the shortest body that can be accepted.
	MinBodyChars int
}

func (o Options) withDefaults() Options {
	if o.CallsLimit <= 0 {
		o.CallsLimit = DefaultCallsLimit
	}
	if o.MaxReads <= 0 {
		o.MaxReads = DefaultMaxReads
	}
	if o.MaxLinks <= 0 {
		o.MaxLinks = cleaner.DefaultMaxLinks
	}
	if o.SearchLimit <= 0 {
		o.SearchLimit = cleaner.DefaultSearchLimit
	}
	if o.SnippetChars <= 0 {
		o.SnippetChars = DefaultSnippetChars
	}
	if o.MinBodyChars <= 0 {
		o.MinBodyChars = relevance.MinSnippetChars
	}
	return o
}

// Outcome is the result of one exploration.
type Outcome struct {
	SeedURL string
	Topic   string

	// Found is true when an article with a non-empty body, not an error
	// page, was evaluated.
	// Article and Verdict then hold the accepted article, or the best one
	// seen when the loop was exhausted.
	Found   bool
	Article models.ExtractedArticle
	Verdict models.RelevanceVerdict

	Phase      Phase
	StopReason string
	CallsMade  int
	Trace      []models.ActionRecord

	// SeedErr is set when the seed page itself could not be fetched.
	SeedErr *models.ScrapeError
}

// Accepted reports whether the loop ended on a relevant article.
func (o Outcome) Accepted() bool { return o.Phase == PhaseAccepted }

// Scored returns the outcome's article for ranking, if one was found.
func (o Outcome) Scored() (models.ScoredArticle, bool) {
	if !o.Found {
		return models.ScoredArticle{}, false
	}
	return models.ScoredArticle{SeedURL: o.SeedURL, Article: o.Article, Verdict: o.Verdict}, true
}

// Controller explores seed URLs. It holds no per-exploration state and is
// safe for concurrent use.
type Controller struct {
	fetcher   Fetcher
	extractor Extractor
	robots    Robots
	opts      Options
}

// New creates a Controller. robots may be nil.
func New(fetcher Fetcher, extractor Extractor, robots Robots, opts Options) *Controller {
	return &Controller{
		fetcher:   fetcher,
		extractor: extractor,
		robots:    robots,
		opts:      opts.withDefaults(),
	}
}

// state belongs to exactly one Explore call.
type state struct {
	seedURL    string
	seedHost   string
	seedBody   string
	topic      string
	keywords   []string
	callsMade  int
	callsLimit int
	reads      int
	attempted  map[string]bool
	candidates []models.LinkCandidate
	current    models.ExtractedArticle
	best       *models.ScoredArticle
	phase      Phase
	trace      []models.ActionRecord
	seedErr    *models.ScrapeError
}

// Explore runs the loop for seedURL until an article is accepted or one of
// the stop conditions fires. The action budget is checked before every
// action and ends the loop on its own, whatever the content.
func (c *Controller) Explore(ctx context.Context, seedURL, topic string, callsLimit int) Outcome {
	if callsLimit <= 0 {
		callsLimit = c.opts.CallsLimit
	}
	s := &state{
		seedURL:    seedURL,
		topic:      topic,
		keywords:   relevance.Keywords(topic),
		callsLimit: callsLimit,
		attempted:  make(map[string]bool),
		phase:      PhaseExploring,
	}
	if u, err := url.Parse(seedURL); err == nil {
		s.seedHost = u.Hostname()
	}

	for {
		if ctx.Err() != nil {
			return c.finish(s, PhaseExhausted, StopCanceled)
		}

		switch s.phase {
		case PhaseExploring:
			if !s.spend(ActionBrowse, seedURL) {
				return c.finish(s, PhaseExhausted, StopBudgetExhausted)
			}
			if reason := c.browse(ctx, s); reason != "" {
				return c.finish(s, PhaseExhausted, reason)
			}
			s.phase = PhaseReading

		case PhaseReading, PhaseRetrying:
			idx := pick(s.candidates, s.attempted, s.keywords, s.seedHost)
			if idx < 0 {
				return c.finish(s, PhaseExhausted, StopCandidatesExhausted)
			}
			cand := s.candidates[idx]

			if c.robots != nil && !c.robots.Allowed(ctx, cand.URL) {
				s.attempted[cand.URL] = true
				s.record(ActionSkip, cand.URL, "disallowed by robots.txt")
				continue
			}
			if !s.spend(ActionRead, cand.URL) {
				return c.finish(s, PhaseExhausted, StopBudgetExhausted)
			}
			s.attempted[cand.URL] = true
			if c.read(ctx, s, cand.URL) {
				s.phase = PhaseEvaluating
			}

		case PhaseEvaluating:
			if !s.spend(ActionEvaluate, s.current.URL) {
				return c.finish(s, PhaseExhausted, StopBudgetExhausted)
			}
			if c.evaluate(s) {
				return c.finish(s, PhaseAccepted, StopRelevant)
			}
			if s.reads >= c.opts.MaxReads {
				return c.finish(s, PhaseExhausted, StopRetryLimit)
			}
			s.phase = PhaseRetrying

		default:
			return c.finish(s, PhaseExhausted, StopCandidatesExhausted)
		}
	}
}

// browse fetches the seed and fills the candidate list. It returns a stop
// reason when the seed cannot be fetched.
func (c *Controller) browse(ctx context.Context, s *state) string {
	res := c.fetcher.Fetch(ctx, s.seedURL)
	if !res.OK() {
		s.note(res.Describe())
		if ctx.Err() != nil {
			return StopCanceled
		}
		s.seedErr = res.AsError()
		return StopSeedUnreachable
	}

	base := s.seedURL
	if res.FinalURL != "" {
		base = res.FinalURL
	}
	rawHTML := res.HTML()
	s.seedBody = rawHTML
	s.candidates = cleaner.ExtractLinks(rawHTML, base, c.opts.MaxLinks)

	// Keyword matches beyond the link cap are still worth a look.
	seen := make(map[string]bool, len(s.candidates))
	for _, cand := range s.candidates {
		seen[cand.URL] = true
	}
	for _, kw := range s.keywords {
		for _, cand := range cleaner.SearchLinks(rawHTML, base, kw, c.opts.SearchLimit) {
			if !seen[cand.URL] {
				seen[cand.URL] = true
				s.candidates = append(s.candidates, cand)
			}
		}
	}

	if len(s.candidates) == 0 {
		// A page without links may be the article itself.
		s.candidates = []models.LinkCandidate{{Text: cleaner.PageTitle(rawHTML), URL: s.seedURL}}
	}

	overview := cleaner.Summarize(rawHTML)
	s.note(fmt.Sprintf("%d candidates; %s", len(s.candidates), overview.Title))
	return ""
}

// read fetches a candidate and extracts its article. It reports whether
// there is something to evaluate.
func (c *Controller) read(ctx context.Context, s *state, rawURL string) bool {
	var rawHTML string
	if rawURL == s.seedURL && s.seedBody != "" {
		rawHTML = s.seedBody
	} else {
		res := c.fetcher.Fetch(ctx, rawURL)
		if !res.OK() {
			s.note(res.Describe())
			return false
		}
		rawHTML = res.HTML()
	}

	s.current = c.extractor.Extract(rawHTML, rawURL)
	s.reads++
	s.note(fmt.Sprintf("%s, %d chars", s.current.Strategy, utf8.RuneCountInString(s.current.BodyText)))
	return true
}

// evaluate scores the current article and tracks the best one. It reports
// whether the article is accepted.
func (c *Controller) evaluate(s *state) bool {
	a := s.current
	snippet := relevance.Snippet(a.BodyText, c.opts.SnippetChars)
	v := relevance.Evaluate(s.topic, a.Title, snippet)
	s.note(fmt.Sprintf("score %.2f, %s", v.Score, v.Reason))

	if a.BodyText != "" && !v.IsErrorPage && (s.best == nil || v.Score > s.best.Verdict.Score) {
		s.best = &models.ScoredArticle{SeedURL: s.seedURL, Article: a, Verdict: v}
	}

	if !v.IsRelevant || utf8.RuneCountInString(a.BodyText) < c.opts.MinBodyChars {
		return false
	}
	s.best = &models.ScoredArticle{SeedURL: s.seedURL, Article: a, Verdict: v}
	return true
}

func (c *Controller) finish(s *state, phase Phase, reason string) Outcome {
	s.phase = phase
	out := Outcome{
		SeedURL:    s.seedURL,
		Topic:      s.topic,
		Phase:      phase,
		StopReason: reason,
		CallsMade:  s.callsMade,
		Trace:      s.trace,
		SeedErr:    s.seedErr,
	}
	if s.best != nil {
		out.Found = true
		out.Article = s.best.Article
		out.Verdict = s.best.Verdict
	}

	slog.Debug("exploration finished",
		"seed", s.seedURL,
		"phase", phase.String(),
		"stop_reason", reason,
		"calls_made", s.callsMade,
		"found", out.Found,
	)
	return out
}

// spend charges one action against the budget. It returns false, without
// charging, once the budget is used up.
func (s *state) spend(action, rawURL string) bool {
	if s.callsMade >= s.callsLimit {
		return false
	}
	s.callsMade++
	s.record(action, rawURL, "")
	slog.Debug("explore action",
		"action", action,
		"phase", s.phase.String(),
		"url", rawURL,
		"calls_made", s.callsMade,
	)
	return true
}

func (s *state) record(action, rawURL, detail string) {
	s.trace = append(s.trace, models.ActionRecord{Action: action, URL: rawURL, Detail: detail})
}

// note sets the detail of the latest trace entry.
func (s *state) note(detail string) {
	if n := len(s.trace); n > 0 {
		s.trace[n-1].Detail = detail
	}
}
