package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/explore"
	"github.com/use-agent/scout/llm"
	"github.com/use-agent/scout/models"
	"github.com/use-agent/scout/rank"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── fakes ───────────────────────────────────────────────────────────

type fakeExplorer struct {
	out    explore.Outcome
	hit    bool
	maxAge time.Duration
}

func (f *fakeExplorer) ExploreMaxAge(_ context.Context, seedURL, topic string, _ int, maxAge time.Duration) (explore.Outcome, bool) {
	f.maxAge = maxAge
	out := f.out
	out.SeedURL = seedURL
	out.Topic = topic
	return out, f.hit
}

type fakeRanker struct {
	mu   sync.Mutex
	res  rank.Result
	opts rank.Options
	urls []string
}

func (f *fakeRanker) ScrapeAndRank(_ context.Context, urls []string, _ string, opts rank.Options) rank.Result {
	f.mu.Lock()
	f.opts = opts
	f.urls = urls
	f.mu.Unlock()
	if opts.OnOutcome != nil {
		for i := range urls {
			opts.OnOutcome(i+1, len(urls), explore.Outcome{})
		}
	}
	return f.res
}

func (f *fakeRanker) lastOpts() rank.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opts
}

type fakeTopics struct {
	urls []string
	err  error
}

func (f fakeTopics) TopicURLs(context.Context, string, int) ([]string, error) {
	return f.urls, f.err
}

type fakeWriter struct {
	params  llm.Params
	sources []llm.Source
	err     error
}

func (f *fakeWriter) WriteScript(_ context.Context, _ string, _ int, sources []llm.Source, params llm.Params) (*llm.ScriptResult, error) {
	f.params = params
	f.sources = sources
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ScriptResult{Script: "Welcome to the show.", Usage: &models.LLMUsage{TotalTokens: 42}}, nil
}

// ── helpers ─────────────────────────────────────────────────────────

var testSettings = RankSettings{
	Defaults: models.RankDefaults{MinRelevance: 0.3, MaxArticles: 5, Concurrency: 3},
	MaxURLs:  3,
}

func sampleArticle(url string, score float64) models.ScoredArticle {
	return models.ScoredArticle{
		SeedURL: "https://news.example.com/",
		Article: models.ExtractedArticle{
			URL:      url,
			Title:    "Solar output hits record",
			BodyText: "Solar farms produced more power than ever this spring.",
			Markdown: "Solar farms produced [more power](https://grid.example.com) than ever.",
			Strategy: models.StrategyReadability,
		},
		Verdict: models.RelevanceVerdict{Score: score, IsRelevant: true, Reason: "title matches"},
	}
}

func serve(method, path string, h gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, path, h)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

// ── explore ─────────────────────────────────────────────────────────

func TestExploreFound(t *testing.T) {
	sa := sampleArticle("https://news.example.com/solar", 0.8)
	ex := &fakeExplorer{
		out: explore.Outcome{
			Found:      true,
			Article:    sa.Article,
			Verdict:    sa.Verdict,
			Phase:      explore.PhaseAccepted,
			StopReason: explore.StopRelevant,
			CallsMade:  3,
			Trace:      []models.ActionRecord{{Action: explore.ActionBrowse, URL: "https://news.example.com/"}},
		},
		hit: true,
	}

	w := serve(http.MethodPost, "/explore", Explore(ex),
		`{"url":"https://news.example.com/","topic":"solar power","output_format":"markdown_citations","max_age":60000,"include_trace":true}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.ExploreResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "accepted", resp.State)
	assert.Equal(t, explore.StopRelevant, resp.StopReason)
	assert.Equal(t, 3, resp.CallsMade)
	assert.Equal(t, "hit", resp.CacheStatus)
	assert.Len(t, resp.Trace, 1)
	require.NotNil(t, resp.Article)
	assert.Contains(t, resp.Article.Content, "[1]")
	assert.Equal(t, "https://news.example.com/", resp.Article.SeedURL)
	assert.InDelta(t, 0.8, resp.Verdict.Score, 1e-9)
	assert.Equal(t, time.Minute, ex.maxAge)
}

func TestExploreNotFound(t *testing.T) {
	ex := &fakeExplorer{out: explore.Outcome{Phase: explore.PhaseExhausted, StopReason: explore.StopSeedUnreachable, CallsMade: 1}}

	w := serve(http.MethodPost, "/explore", Explore(ex), `{"url":"https://down.example.com/","topic":"solar"}`)

	require.Equal(t, http.StatusNotFound, w.Code)
	resp := decode[models.ExploreResponse](t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "exhausted", resp.State)
	assert.Equal(t, explore.StopSeedUnreachable, resp.StopReason)
	assert.Empty(t, resp.CacheStatus)
	assert.Empty(t, resp.Trace)
	require.NotNil(t, resp.Error)
	assert.Equal(t, models.ErrCodeNoContent, resp.Error.Code)
}

func TestExploreSeedFetchError(t *testing.T) {
	ex := &fakeExplorer{out: explore.Outcome{
		Phase:      explore.PhaseExhausted,
		StopReason: explore.StopSeedUnreachable,
		CallsMade:  1,
		SeedErr:    models.NewScrapeError(models.ErrCodeTimeout, "fetch timed out", nil),
	}}

	w := serve(http.MethodPost, "/explore", Explore(ex), `{"url":"https://slow.example.com/","topic":"solar"}`)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrCodeTimeout)
}

func TestExploreInvalidInput(t *testing.T) {
	for _, body := range []string{
		`{"topic":"solar"}`,
		`{"url":"not a url","topic":"solar"}`,
		`{"url":"https://a.example.com/","topic":"solar","calls_limit":99}`,
		`{"url":"https://a.example.com/","topic":"solar","output_format":"pdf"}`,
	} {
		w := serve(http.MethodPost, "/explore", Explore(&fakeExplorer{}), body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), models.ErrCodeInvalidInput, body)
	}
}

// ── rank ────────────────────────────────────────────────────────────

func TestRankOK(t *testing.T) {
	r := &fakeRanker{res: rank.Result{
		Articles: []models.ScoredArticle{sampleArticle("https://a.example.com/1", 0.9), sampleArticle("https://b.example.com/2", 0.5)},
		Total:    2,
		Explored: 2,
	}}

	w := serve(http.MethodPost, "/rank", Rank(r, testSettings),
		`{"urls":["https://a.example.com/","https://b.example.com/"],"topic":"solar","concurrency":1}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.RankResponse](t, w)
	assert.True(t, resp.Success)
	require.Len(t, resp.Articles, 2)
	assert.Equal(t, "https://a.example.com/1", resp.Articles[0].URL)
	assert.Positive(t, resp.Articles[0].Tokens)
	assert.Equal(t, 2, resp.Explored)

	opts := r.lastOpts()
	assert.Equal(t, 1, opts.Concurrency)
	assert.Equal(t, 5, opts.MaxArticles)
	assert.InDelta(t, 0.3, opts.MinRelevance, 1e-9)
}

func TestRankExplicitZeroThreshold(t *testing.T) {
	r := &fakeRanker{res: rank.Result{Articles: []models.ScoredArticle{sampleArticle("https://a.example.com/1", 0.1)}, Total: 1, Explored: 1}}

	w := serve(http.MethodPost, "/rank", Rank(r, testSettings),
		`{"urls":["https://a.example.com/"],"topic":"solar","min_relevance":0}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, r.lastOpts().MinRelevance)
}

func TestRankNoContent(t *testing.T) {
	r := &fakeRanker{res: rank.Result{Total: 1, Explored: 1}}

	w := serve(http.MethodPost, "/rank", Rank(r, testSettings), `{"urls":["https://a.example.com/"],"topic":"solar"}`)

	require.Equal(t, http.StatusNotFound, w.Code)
	resp := decode[models.RankResponse](t, w)
	assert.False(t, resp.Success)
	assert.NotNil(t, resp.Articles)
	assert.Empty(t, resp.Articles)
	require.NotNil(t, resp.Error)
	assert.Equal(t, MsgNoContent, resp.Error.Message)
	assert.Contains(t, w.Body.String(), `"articles":[]`)
}

func TestRankTooManyURLs(t *testing.T) {
	w := serve(http.MethodPost, "/rank", Rank(&fakeRanker{}, testSettings),
		`{"urls":["https://a.example.com/","https://b.example.com/","https://c.example.com/","https://d.example.com/"],"topic":"solar"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "maximum 3 URLs")
}

func TestRankAsync(t *testing.T) {
	jobs := NewJobStore(time.Hour)
	defer jobs.Close()
	r := &fakeRanker{res: rank.Result{Articles: []models.ScoredArticle{sampleArticle("https://a.example.com/1", 0.9)}, Total: 2, Explored: 2}}

	router := gin.New()
	router.POST("/rank/async", PostRankAsync(r, jobs, testSettings))
	router.GET("/rank/:id", GetRank(jobs))

	req := httptest.NewRequest(http.MethodPost, "/rank/async", strings.NewReader(`{"urls":["https://a.example.com/","https://b.example.com/"],"topic":"solar"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	accepted := decode[models.BatchResponse](t, w)
	assert.True(t, strings.HasPrefix(accepted.ID, "rank-"))
	assert.Equal(t, models.JobProcessing, accepted.Status)
	assert.Equal(t, 2, accepted.Total)

	require.Eventually(t, func() bool {
		job, ok := jobs.Get(accepted.ID)
		return ok && job.Status == models.JobCompleted
	}, 2*time.Second, 10*time.Millisecond)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rank/"+accepted.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[models.BatchStatusResponse](t, w)
	assert.Equal(t, 2, status.Completed)
	require.NotNil(t, status.Result)
	assert.Len(t, status.Result.Articles, 1)
}

func TestGetRankUnknown(t *testing.T) {
	jobs := NewJobStore(time.Hour)
	defer jobs.Close()

	router := gin.New()
	router.GET("/rank/:id", GetRank(jobs))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rank/rank-missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrCodeJobNotFound)
}

func TestJobStoreSweep(t *testing.T) {
	jobs := NewJobStore(time.Hour)
	defer jobs.Close()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jobs.now = func() time.Time { return base }

	done := jobs.Create("solar", 1)
	jobs.Update(done.ID, func(job *models.BatchJob) { job.Status = models.JobCompleted })
	running := jobs.Create("solar", 1)

	jobs.now = func() time.Time { return base.Add(2 * time.Hour) }
	jobs.sweep()

	_, ok := jobs.Get(done.ID)
	assert.False(t, ok)
	_, ok = jobs.Get(running.ID)
	assert.True(t, ok)
}

// ── topics ──────────────────────────────────────────────────────────

func TestTopics(t *testing.T) {
	f := fakeTopics{urls: []string{"https://a.example.com/story"}}
	w := serve(http.MethodPost, "/topics", Topics(f), `{"topic":"solar"}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.TopicsResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"https://a.example.com/story"}, resp.URLs)
}

func TestTopicsUpstreamFailure(t *testing.T) {
	w := serve(http.MethodPost, "/topics", Topics(fakeTopics{err: errors.New("feed returned 503")}), `{"topic":"solar"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrCodeNetwork)
}

func TestTopicsMissingTopic(t *testing.T) {
	w := serve(http.MethodPost, "/topics", Topics(fakeTopics{}), `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ── script ──────────────────────────────────────────────────────────

func TestScript(t *testing.T) {
	r := &fakeRanker{res: rank.Result{Articles: []models.ScoredArticle{sampleArticle("https://a.example.com/1", 0.9)}, Total: 1, Explored: 1}}
	wr := &fakeWriter{}
	cfg := llmDefaults()

	w := serve(http.MethodPost, "/script", Script(r, wr, testSettings, cfg),
		`{"urls":["https://a.example.com/"],"topic":"solar","llm_model":"custom-model"}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.ScriptResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "Welcome to the show.", resp.Script)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 42, resp.Usage.TotalTokens)
	assert.Len(t, resp.Sources, 1)

	assert.Equal(t, "custom-model", wr.params.Model)
	assert.Equal(t, cfg.APIKey, wr.params.APIKey)
	assert.Equal(t, cfg.BaseURL, wr.params.BaseURL)
	require.Len(t, wr.sources, 1)
	assert.Equal(t, "https://a.example.com/1", wr.sources[0].URL)
}

func TestScriptNoContent(t *testing.T) {
	wr := &fakeWriter{}
	w := serve(http.MethodPost, "/script", Script(&fakeRanker{}, wr, testSettings, llmDefaults()),
		`{"urls":["https://a.example.com/"],"topic":"solar"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Nil(t, wr.sources)
}

func TestScriptWriterError(t *testing.T) {
	r := &fakeRanker{res: rank.Result{Articles: []models.ScoredArticle{sampleArticle("https://a.example.com/1", 0.9)}, Total: 1, Explored: 1}}
	wr := &fakeWriter{err: models.NewScrapeError(models.ErrCodeLLMAuthFailure, "bad key", nil)}

	w := serve(http.MethodPost, "/script", Script(r, wr, testSettings, llmDefaults()),
		`{"urls":["https://a.example.com/"],"topic":"solar"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decode[models.ScriptResponse](t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, models.ErrCodeLLMAuthFailure, resp.Error.Code)
	assert.Len(t, resp.Sources, 1)
}

// ── health ──────────────────────────────────────────────────────────

type fakePool struct{ stats models.PoolStats }

func (f fakePool) Stats() models.PoolStats { return f.stats }

func TestHealth(t *testing.T) {
	w := serve(http.MethodGet, "/health", Health(nil, nil, time.Now()), "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, Version, resp.Version)
	assert.Nil(t, resp.PoolStats)

	busy := fakePool{stats: models.PoolStats{MaxPages: 4, ActivePages: 4}}
	w = serve(http.MethodGet, "/health", Health(busy, nil, time.Now()), "")
	assert.Equal(t, "degraded", decode[models.HealthResponse](t, w).Status)
}

func TestMapErrorToStatus(t *testing.T) {
	cases := map[string]int{
		models.ErrCodeTimeout:        http.StatusGatewayTimeout,
		models.ErrCodeNetwork:        http.StatusBadGateway,
		models.ErrCodeLLMFailure:     http.StatusBadGateway,
		models.ErrCodeInvalidInput:   http.StatusBadRequest,
		models.ErrCodeLLMRateLimited: http.StatusTooManyRequests,
		models.ErrCodeNoContent:      http.StatusNotFound,
		models.ErrCodeInternal:       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, mapErrorToStatus(models.NewScrapeError(code, "x", nil)), code)
	}
	assert.Equal(t, models.ErrCodeInternal, asScrapeError(errors.New("boom")).Code)
}

func llmDefaults() config.LLMConfig {
	return config.LLMConfig{APIKey: "server-key", Model: "gpt-4o-mini", BaseURL: "https://llm.example.com/v1"}
}
