package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scout/api/handler"
	"github.com/use-agent/scout/api/middleware"
	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/llm"
	"github.com/use-agent/scout/models"
)

// Deps are the services the routes call into. Pool and Cache may be nil.
type Deps struct {
	Explorer handler.CachedExplorer
	Ranker   handler.Ranker
	Topics   handler.TopicFinder
	Writer   llm.ScriptWriter
	Jobs     *handler.JobStore
	Pool     handler.PoolReporter
	Cache    handler.CacheReporter
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work.
func NewRouter(d Deps, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(d.Pool, d.Cache, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	settings := handler.RankSettings{
		Defaults: models.RankDefaults{
			MinRelevance: cfg.Batch.MinRelevance,
			MaxArticles:  cfg.Batch.MaxArticles,
			Concurrency:  cfg.Batch.Concurrency,
		},
		MaxURLs: cfg.Batch.MaxURLs,
	}

	// Single exploration
	protected.POST("/explore", handler.Explore(d.Explorer))

	// Scrape and rank
	protected.POST("/rank", handler.Rank(d.Ranker, settings))
	protected.POST("/rank/async", handler.PostRankAsync(d.Ranker, d.Jobs, settings))
	protected.GET("/rank/:id", handler.GetRank(d.Jobs))

	// Topic discovery
	protected.POST("/topics", handler.Topics(d.Topics))

	// Narrated script from ranked articles
	protected.POST("/script", handler.Script(d.Ranker, d.Writer, settings, cfg.LLM))

	return r
}
