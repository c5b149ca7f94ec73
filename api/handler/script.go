package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/llm"
	"github.com/use-agent/scout/models"
)

// Script returns a handler for POST /api/v1/script.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Scrape and rank the URLs (404 when nothing is relevant).
//  3. Hand url, title and body of each article to the script writer.
//  4. Respond with the script, its sources and token usage.
func Script(r Ranker, writer llm.ScriptWriter, s RankSettings, llmCfg config.LLMConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScriptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ScriptResponse{Success: false, Error: invalidInput(err.Error())})
			return
		}
		if !validateRank(c, &req.RankRequest, s) {
			return
		}
		if req.DurationMinutes == 0 {
			req.DurationMinutes = 5
		}

		// ── 2. Scrape and rank ──────────────────────────────────────
		exploreStart := time.Now()
		res := r.ScrapeAndRank(c.Request.Context(), req.URLs, req.Topic, rankOptions(&req.RankRequest))
		exploreMs := time.Since(exploreStart).Milliseconds()

		if res.NoContent() {
			c.JSON(http.StatusNotFound, models.ScriptResponse{
				Success: false,
				Topic:   req.Topic,
				Timing:  models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds(), ExploreMs: exploreMs},
				Error:   &models.ErrorDetail{Code: models.ErrCodeNoContent, Message: MsgNoContent},
			})
			return
		}

		sources := make([]llm.Source, 0, len(res.Articles))
		results := make([]models.ArticleResult, 0, len(res.Articles))
		for _, sa := range res.Articles {
			sources = append(sources, llm.Source{URL: sa.Article.URL, Title: sa.Article.Title, Body: sa.Article.BodyText})
			results = append(results, NewArticleResult(sa, req.OutputFormat))
		}

		// ── 3. Write ────────────────────────────────────────────────
		params := llm.Params{
			APIKey:  firstNonEmpty(req.LLMAPIKey, llmCfg.APIKey),
			Model:   firstNonEmpty(req.LLMModel, llmCfg.Model),
			BaseURL: firstNonEmpty(req.LLMBaseURL, llmCfg.BaseURL),
		}
		writeStart := time.Now()
		script, err := writer.WriteScript(c.Request.Context(), req.Topic, req.DurationMinutes, sources, params)
		writingMs := time.Since(writeStart).Milliseconds()

		timing := models.TimingInfo{
			TotalMs:   time.Since(totalStart).Milliseconds(),
			ExploreMs: exploreMs,
			WritingMs: writingMs,
		}
		if err != nil {
			se := asScrapeError(err)
			c.JSON(mapErrorToStatus(se), models.ScriptResponse{
				Success: false,
				Topic:   req.Topic,
				Sources: results,
				Timing:  timing,
				Error:   se.ToDetail(),
			})
			return
		}

		// ── 4. Respond ──────────────────────────────────────────────
		c.JSON(http.StatusOK, models.ScriptResponse{
			Success: true,
			Topic:   req.Topic,
			Script:  script.Script,
			Sources: results,
			Usage:   script.Usage,
			Timing:  timing,
		})
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
