package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scout/explore"
	"github.com/use-agent/scout/models"
	"github.com/use-agent/scout/webhook"
)

// RankSettings are the server-side limits and defaults for rank requests.
type RankSettings struct {
	Defaults models.RankDefaults
	MaxURLs  int
}

// bindRank parses and validates a rank request. It writes the 400 itself
// and reports false on failure.
func bindRank(c *gin.Context, req *models.RankRequest, s RankSettings) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, models.RankResponse{Success: false, Error: invalidInput(err.Error())})
		return false
	}
	return validateRank(c, req, s)
}

func validateRank(c *gin.Context, req *models.RankRequest, s RankSettings) bool {
	if s.MaxURLs > 0 && len(req.URLs) > s.MaxURLs {
		c.JSON(http.StatusBadRequest, models.RankResponse{
			Success: false,
			Error:   invalidInput(fmt.Sprintf("maximum %d URLs per request", s.MaxURLs)),
		})
		return false
	}
	req.Defaults(s.Defaults)
	return true
}

// Rank returns a handler for POST /api/v1/rank.
//
// Every URL is explored (bounded by concurrency), the articles found are
// ranked, and the top ones returned. Nothing above the threshold is a 404,
// not an error.
func Rank(r Ranker, s RankSettings) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.RankRequest
		if !bindRank(c, &req, s) {
			return
		}

		res := r.ScrapeAndRank(c.Request.Context(), req.URLs, req.Topic, rankOptions(&req))

		resp := NewRankResponse(req.Topic, res, req.OutputFormat)
		resp.Timing = models.TimingInfo{
			TotalMs:   time.Since(totalStart).Milliseconds(),
			ExploreMs: time.Since(totalStart).Milliseconds(),
		}
		if res.NoContent() {
			resp.Error = &models.ErrorDetail{Code: models.ErrCodeNoContent, Message: MsgNoContent}
			c.JSON(http.StatusNotFound, resp)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// PostRankAsync returns a handler for POST /api/v1/rank/async. The batch
// runs in the background; poll GET /api/v1/rank/:id or pass webhook_url.
func PostRankAsync(r Ranker, jobs *JobStore, s RankSettings) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RankRequest
		if !bindRank(c, &req, s) {
			return
		}

		job := jobs.Create(req.Topic, len(req.URLs))
		go runRankJob(r, jobs, job.ID, req)

		c.JSON(http.StatusAccepted, models.BatchResponse{
			ID:     job.ID,
			Status: job.Status,
			Total:  job.Total,
		})
	}
}

// GetRank returns a handler for GET /api/v1/rank/:id.
func GetRank(jobs *JobStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := jobs.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeJobNotFound,
					Message: "rank job not found",
				},
			})
			return
		}
		c.JSON(http.StatusOK, statusResponse(job))
	}
}

func statusResponse(job models.BatchJob) models.BatchStatusResponse {
	return models.BatchStatusResponse{
		ID:        job.ID,
		Status:    job.Status,
		Topic:     job.Topic,
		Completed: job.Completed,
		Total:     job.Total,
		Result:    job.Result,
	}
}

// runRankJob runs a batch detached from the request that started it.
func runRankJob(r Ranker, jobs *JobStore, id string, req models.RankRequest) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			slog.Error("rank job panicked", "id", id, "panic", p)
			var snapshot models.BatchJob
			jobs.Update(id, func(job *models.BatchJob) {
				job.Status = models.JobFailed
				snapshot = *job
			})
			if req.WebhookURL != "" {
				webhook.DeliverAsync(req.WebhookURL, req.WebhookSecret, webhook.NewEvent(webhook.EventRankFailed, id, statusResponse(snapshot)))
			}
		}
	}()
	opts := rankOptions(&req)
	opts.OnOutcome = func(done, total int, _ explore.Outcome) {
		jobs.Update(id, func(job *models.BatchJob) {
			job.Completed = done
			job.Total = total
		})
	}

	res := r.ScrapeAndRank(context.Background(), req.URLs, req.Topic, opts)
	resp := NewRankResponse(req.Topic, res, req.OutputFormat)
	resp.Timing = models.TimingInfo{TotalMs: time.Since(start).Milliseconds()}

	eventType := webhook.EventRankCompleted
	status := models.JobCompleted
	if res.NoContent() {
		eventType = webhook.EventRankNoContent
		status = models.JobNoContent
		resp.Error = &models.ErrorDetail{Code: models.ErrCodeNoContent, Message: MsgNoContent}
	}

	var snapshot models.BatchJob
	jobs.Update(id, func(job *models.BatchJob) {
		job.Status = status
		job.Result = resp
		job.Completed = res.Explored
		job.Total = res.Total
		snapshot = *job
	})

	slog.Info("rank job finished",
		"id", id,
		"status", status,
		"explored", res.Explored,
		"articles", len(res.Articles),
	)

	if req.WebhookURL != "" {
		webhook.DeliverAsync(req.WebhookURL, req.WebhookSecret, webhook.NewEvent(eventType, id, statusResponse(snapshot)))
	}
}
