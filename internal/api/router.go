// Package api wires the HTTP surface: sync triggers, health, and metrics.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maildesk-io/maildesk/internal/auth"
	"github.com/maildesk-io/maildesk/internal/config"
	"github.com/maildesk-io/maildesk/internal/ingest"
	"github.com/maildesk-io/maildesk/internal/middleware"
)

// NewRouter assembles the gin engine with all routes and middleware.
func NewRouter(cfg *config.Config, db *sqlx.DB, syncService *ingest.Service, jwtManager *auth.JWTManager) *gin.Engine {
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/healthz", healthHandler(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	syncHandler := NewSyncHandler(syncService)
	authMw := middleware.NewAuthMiddleware(jwtManager)

	v1 := router.Group("/api/v1")
	{
		sync := v1.Group("/sync")
		sync.POST("/run", middleware.RequireSchedulerSecret(cfg.Sync.SchedulerSecret), syncHandler.RunAll)
		sync.POST("/now", authMw.RequireAuth(), syncHandler.RunForUser)
	}

	return router
}

func healthHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
