package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scout/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// PoolReporter exposes browser pool state. *browser.Browser satisfies it.
type PoolReporter interface {
	Stats() models.PoolStats
}

// CacheReporter exposes cache counters. *cache.Cache satisfies it.
type CacheReporter interface {
	Stats() models.CacheStats
}

// Health returns a handler for GET /api/v1/health. pool and cc may be nil.
//
// Status degrades when more than 80% of browser pages are active.
func Health(pool PoolReporter, cc CacheReporter, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := models.HealthResponse{
			Status:  "healthy",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: Version,
		}

		if pool != nil {
			stats := pool.Stats()
			resp.PoolStats = &stats
			if stats.MaxPages > 0 && stats.ActivePages > int(float64(stats.MaxPages)*0.8) {
				resp.Status = "degraded"
			}
		}
		if cc != nil {
			stats := cc.Stats()
			resp.Cache = &stats
		}

		c.JSON(http.StatusOK, resp)
	}
}
