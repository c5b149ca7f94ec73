package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/use-agent/scout/cleaner"
	"github.com/use-agent/scout/explore"
	"github.com/use-agent/scout/models"
	"github.com/use-agent/scout/rank"
)

// MsgNoContent is returned when a batch yields nothing above the threshold.
const MsgNoContent = "No relevant content found from the provided URLs"

// CachedExplorer runs one exploration, optionally from the cache.
// *cache.Explorer satisfies it.
type CachedExplorer interface {
	ExploreMaxAge(ctx context.Context, seedURL, topic string, callsLimit int, maxAge time.Duration) (explore.Outcome, bool)
}

// Ranker runs a scrape-and-rank batch. *rank.Runner satisfies it.
type Ranker interface {
	ScrapeAndRank(ctx context.Context, urls []string, topic string, opts rank.Options) rank.Result
}

// asScrapeError wraps unknown errors as internal.
func asScrapeError(err error) *models.ScrapeError {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	return models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeNetwork, models.ErrCodeHTTPStatus, models.ErrCodeLLMFailure:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited, models.ErrCodeLLMRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized, models.ErrCodeLLMAuthFailure:
		return http.StatusUnauthorized // 401
	case models.ErrCodeNoContent, models.ErrCodeJobNotFound:
		return http.StatusNotFound // 404
	default:
		return http.StatusInternalServerError // 500
	}
}

// invalidInput is the 400 detail for a binding or validation failure.
func invalidInput(msg string) *models.ErrorDetail {
	return &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: msg}
}

// NewArticleResult renders a scored article for the API.
func NewArticleResult(sa models.ScoredArticle, format string) models.ArticleResult {
	content := cleaner.Render(sa.Article, format)
	return models.ArticleResult{
		URL:            sa.Article.URL,
		SeedURL:        sa.SeedURL,
		Title:          sa.Article.Title,
		Content:        content,
		RelevanceScore: sa.Verdict.Score,
		Reason:         sa.Verdict.Reason,
		Strategy:       sa.Article.Strategy,
		Language:       sa.Article.Language,
		Tokens:         cleaner.EstimateTokens(content),
	}
}

// NewRankResponse converts a batch result. Articles is never null.
func NewRankResponse(topic string, res rank.Result, format string) *models.RankResponse {
	articles := make([]models.ArticleResult, 0, len(res.Articles))
	for _, sa := range res.Articles {
		articles = append(articles, NewArticleResult(sa, format))
	}
	return &models.RankResponse{
		Success:  !res.NoContent(),
		Topic:    topic,
		Articles: articles,
		Total:    res.Total,
		Explored: res.Explored,
		Canceled: res.Canceled,
	}
}

// rankOptions resolves a request after Defaults.
func rankOptions(req *models.RankRequest) rank.Options {
	return rank.Options{
		MinRelevance: *req.MinRelevance,
		MaxArticles:  req.MaxArticles,
		Concurrency:  req.Concurrency,
		CallsLimit:   req.CallsLimit,
	}
}
