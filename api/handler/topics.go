package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scout/models"
)

// TopicFinder discovers seed URLs for a topic. *feed.Discoverer satisfies it.
type TopicFinder interface {
	TopicURLs(ctx context.Context, topic string, n int) ([]string, error)
}

// Topics returns a handler for POST /api/v1/topics.
func Topics(f TopicFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TopicsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.TopicsResponse{Success: false, Error: invalidInput(err.Error())})
			return
		}
		req.Defaults()

		urls, err := f.TopicURLs(c.Request.Context(), req.Topic, req.NumURLs)
		if err != nil {
			se := models.NewScrapeError(models.ErrCodeNetwork, "topic search failed", err)
			c.JSON(mapErrorToStatus(se), models.TopicsResponse{
				Success: false,
				Topic:   req.Topic,
				URLs:    []string{},
				Error:   se.ToDetail(),
			})
			return
		}

		c.JSON(http.StatusOK, models.TopicsResponse{
			Success: true,
			Topic:   req.Topic,
			URLs:    urls,
		})
	}
}
