package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/swayam-be/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// ServiceName identifies the API in health checks and traces
const ServiceName = "swayam-api-service"

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(TracingMiddleware(ServiceName))
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	r.GET("/health", healthHandler(deps))

	jobHandler := handler.NewJobHandler(deps)
	userHandler := handler.NewUserHandler(deps)
	safetyHandler := handler.NewSafetyHandler(deps)
	schemeHandler := handler.NewSchemeHandler(deps)
	statsHandler := handler.NewStatsHandler(deps)

	v1 := r.Group("/api/v1")
	{
		v1.GET("", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "SWAYAM API running"})
		})

		jobs := v1.Group("/jobs")
		{
			jobs.POST("", jobHandler.CreateJob)
			jobs.GET("", jobHandler.ListJobs)
			jobs.GET("/:job_id", jobHandler.GetJob)
			jobs.POST("/:job_id/apply", jobHandler.ApplyForJob)
			jobs.POST("/:job_id/complete", jobHandler.CompleteJob)
		}

		users := v1.Group("/users")
		{
			users.POST("", userHandler.CreateUser)
			users.GET("/:user_id", userHandler.GetUser)
			users.GET("/:user_id/ratings", userHandler.ListRatings)
		}

		workers := v1.Group("/workers/:worker_id")
		{
			workers.GET("/jobs", jobHandler.ListWorkerJobs)
			workers.GET("/trust-score", userHandler.GetTrustScore)
			workers.GET("/policies", safetyHandler.ListWorkerPolicies)
		}

		v1.POST("/ratings", userHandler.CreateRating)
		v1.GET("/policies/:policy_id", safetyHandler.GetPolicy)
		v1.POST("/sos/trigger", safetyHandler.TriggerSOS)

		v1.GET("/schemes", schemeHandler.ListSchemes)
		v1.GET("/schemes/:scheme_id", schemeHandler.GetScheme)

		v1.GET("/stats/impact", statsHandler.GetImpactStats)
	}

	return r
}

func healthHandler(deps *handler.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := deps.Storage.Ping(ctx); err != nil {
			deps.Logger.Error("Health check failed", slog.Any("error", err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": ServiceName,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": ServiceName,
		})
	}
}
