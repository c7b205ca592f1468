package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/niaga-platform/service-dashboard/internal/handlers"
	"github.com/niaga-platform/service-dashboard/internal/telemetry"
)

// RouteConfig holds configuration for routes
type RouteConfig struct {
	ServiceName      string
	DashboardHandler *handlers.DashboardHandler
	Metrics          *telemetry.Metrics
}

// SetupRoutes configures all routes
func SetupRoutes(router *gin.Engine, cfg *RouteConfig) {
	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": cfg.ServiceName,
			"time":    time.Now().UTC(),
		})
	})

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	router.GET("/", cfg.DashboardHandler.GetPage)

	// API v1 routes
	v1 := router.Group("/api/v1")
	dashboard := v1.Group("/dashboard")
	{
		dashboard.GET("", cfg.DashboardHandler.GetDashboard)
		dashboard.GET("/filters", cfg.DashboardHandler.GetFilters)
		dashboard.GET("/:tab", cfg.DashboardHandler.GetTab)
		dashboard.GET("/:tab/export.csv", cfg.DashboardHandler.ExportCSV)
		dashboard.GET("/:tab/export.xlsx", cfg.DashboardHandler.ExportXLSX)
	}
}
