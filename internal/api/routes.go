package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(gin.Logger())

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		sources := v1.Group("/sources")
		{
			sources.POST("", handler.RegisterSource)
			sources.GET("", handler.ListSources)
			sources.GET("/:id", handler.GetSource)
			sources.DELETE("/:id", handler.DeleteSource)

			// Harvest jobs per source
			sources.POST("/:id/jobs", handler.StartJob)
			sources.GET("/:id/jobs", handler.ListJobs)
		}

		jobs := v1.Group("/jobs")
		{
			jobs.GET("/:id", handler.GetJob)
			jobs.GET("/:id/items", handler.ListJobItems)
			jobs.POST("/:id/cancel", handler.CancelJob)
		}
	}

	return router
}
