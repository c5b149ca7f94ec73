package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scout/models"
)

// Explore returns a handler for POST /api/v1/explore.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Explore the seed (cache first when max_age > 0).
//  3. Render the article in the requested format.
//  4. 200 with the article, 502/504 when the seed failed, 404 when
//     nothing was extracted.
func Explore(ex CachedExplorer) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ExploreRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ExploreResponse{
				Success: false,
				Error:   invalidInput(err.Error()),
			})
			return
		}
		req.Defaults()

		// ── 2. Explore ──────────────────────────────────────────────
		exploreStart := time.Now()
		maxAge := time.Duration(req.MaxAge) * time.Millisecond
		out, hit := ex.ExploreMaxAge(c.Request.Context(), req.URL, req.Topic, req.CallsLimit, maxAge)

		resp := models.ExploreResponse{
			Success:    out.Found,
			Found:      out.Found,
			State:      out.Phase.String(),
			StopReason: out.StopReason,
			CallsMade:  out.CallsMade,
			Timing: models.TimingInfo{
				TotalMs:   time.Since(totalStart).Milliseconds(),
				ExploreMs: time.Since(exploreStart).Milliseconds(),
			},
		}
		if req.IncludeTrace {
			resp.Trace = out.Trace
		}
		if req.MaxAge > 0 {
			resp.CacheStatus = "miss"
			if hit {
				resp.CacheStatus = "hit"
			}
		}

		// ── 3. Respond ──────────────────────────────────────────────
		scored, found := out.Scored()
		if !found && out.SeedErr != nil {
			resp.Error = out.SeedErr.ToDetail()
			c.JSON(mapErrorToStatus(out.SeedErr), resp)
			return
		}
		if !found {
			resp.Error = &models.ErrorDetail{
				Code:    models.ErrCodeNoContent,
				Message: "No relevant article found at " + req.URL,
			}
			c.JSON(http.StatusNotFound, resp)
			return
		}

		article := NewArticleResult(scored, req.OutputFormat)
		verdict := scored.Verdict
		resp.Article = &article
		resp.Verdict = &verdict
		c.JSON(http.StatusOK, resp)
	}
}
