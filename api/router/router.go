package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"reply-bot/api/handlers"
	"reply-bot/api/middleware"
	"reply-bot/dedup"
	"reply-bot/ledger"
	"reply-bot/replyscore"
)

type Deps struct {
	History      *ledger.History
	Metrics      ledger.MetricsReader
	Store        dedup.Store
	Recorder     *ledger.PromRecorder
	Gate         replyscore.Gate
	CooldownDays int
	Now          func() time.Time
}

func New(d Deps) *gin.Engine {
	if d.Now == nil {
		d.Now = time.Now
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogging())
	if d.Recorder != nil {
		r.Use(middleware.Metrics(d.Recorder))
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Recorder.Registry(), promhttp.HandlerOpts{})))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.GET("/runs", handlers.ListRunsHandler(d.History))
		api.GET("/runs/:id", handlers.GetRunHandler(d.History))
		if d.Metrics != nil {
			api.GET("/metrics/recent", handlers.RecentMetricsHandler(d.Metrics))
		}
		if d.Store != nil {
			api.GET("/dedup", handlers.DedupStatsHandler(d.Store, d.CooldownDays, d.Now))
		}
		api.POST("/replies/score", handlers.ScoreReplyHandler(d.Gate))
	}

	return r
}

// WithCORS wraps the engine with a CORS handler for the given origins.
// No origins means the API is same-origin only.
func WithCORS(h http.Handler, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		return h
	}
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         600,
	}).Handler(h)
}
