package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ovforge/ovforge/internal/api/handlers"
	"github.com/ovforge/ovforge/internal/daemon"
)

const (
	defaultSubmitRate  = 5.0
	defaultSubmitBurst = 10
)

func SetupRoutes(d *daemon.Daemon) *gin.Engine {
	// Set Gin to release mode for production
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Add middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Create handlers
	h := handlers.NewHandlers(d)

	// Job submission spawns subprocesses; keep it rate limited
	submitLimiter := rateLimitMiddleware(rate.Limit(defaultSubmitRate), defaultSubmitBurst)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health and status endpoints
		v1.GET("/health", h.Health)
		v1.GET("/status", h.Status)

		// Conversion job endpoints
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", submitLimiter, h.SubmitJob)
			jobs.GET("", h.ListJobs)
			jobs.GET("/:id", h.GetJob)
			jobs.DELETE("/:id", h.CancelJob)
		}

		// Config validation
		v1.POST("/validate", h.ValidateConfig)

		// Converted model endpoints
		models := v1.Group("/models")
		{
			models.GET("", h.ListModels)
			models.GET("/:name", h.GetModel)
			models.DELETE("/:name", h.RemoveModel)
		}

		// Admin endpoints
		admin := v1.Group("/admin")
		{
			admin.POST("/shutdown", h.Shutdown)
		}
	}

	// Catch-all for undefined routes
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "endpoint not found",
			"path":  c.Request.URL.Path,
		})
	})

	return router
}

// rateLimitMiddleware rejects requests beyond the given rate
func rateLimitMiddleware(limit rate.Limit, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(limit, burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
			})
			return
		}
		c.Next()
	}
}

// corsMiddleware adds CORS headers for local development
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "http://localhost:*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
