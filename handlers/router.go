package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"venuepulse/config"
	"venuepulse/middleware"
	"venuepulse/utils"
)

// NewRouter assembles the dashboard service API.
func NewRouter(cfg *config.Config, sessions *SessionHandler, activity *ActivityHandler, logger *utils.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "dashboard-service",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTSecret))
	{
		sessionsGroup := v1.Group("/sessions")
		{
			sessionsGroup.POST("", sessions.CreateSession)
			sessionsGroup.GET("/active", sessions.GetActiveSessions)
			sessionsGroup.POST("/:id/heartbeat", sessions.Heartbeat)
			sessionsGroup.POST("/:id/end", sessions.EndSession)
		}

		activityGroup := v1.Group("/activity")
		{
			activityGroup.POST("", activity.LogActivity)
			activityGroup.GET("", activity.ListActivity)
		}
	}

	return router
}
