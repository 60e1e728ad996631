package app

import (
	"context"
	"net/http"

	"github.com/garyellow/course-advisor-go/internal/config"
	"github.com/garyellow/course-advisor-go/internal/sentry"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// pinger is implemented by transcript sinks backed by a live connection.
type pinger interface {
	Ping(ctx context.Context) error
}

func (a *Application) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))

	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)

	router.POST("/chat", a.handleChat)
	router.POST("/set_grade", a.handleSetGrade)
	router.GET("/get_chat_history", a.handleHistory)
	router.POST("/clear_history", a.handleClearHistory)
	router.GET("/get_user_info", a.handleUserInfo)

	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.Metrics),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	return router
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) features() map[string]bool {
	return map[string]bool{
		"generation":    a.generator != nil,
		"hybrid_search": a.cfg.Advisor.HybridSearch,
	}
}

// readinessCheck reports catalog and index state. The index is read-only
// after startup, so only the transcript sink can degrade at runtime.
func (a *Application) readinessCheck(c *gin.Context) {
	if a.catalog == nil || a.index == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "vector index not built",
		})
		return
	}

	sinkName := ""
	if a.sink != nil {
		sinkName = a.sink.Name()
		if p, ok := a.sink.(pinger); ok {
			ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheck)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				a.logger.WithError(err).WarnContext(ctx, "Readiness check failed: transcript sink unavailable")
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "not ready",
					"reason": "transcript sink unavailable",
				})
				return
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"catalog": gin.H{
			"documents": len(a.catalog.Documents),
			"hash":      a.catalog.Hash,
		},
		"index": gin.H{
			"chunks": a.index.Count(),
			"source": a.index.Source(),
		},
		"transcript_sink": sinkName,
		"sessions":        a.store.Len(),
		"features":        a.features(),
	})
}
