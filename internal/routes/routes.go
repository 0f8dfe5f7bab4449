package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/checknet/backend/internal/config"
	"github.com/checknet/backend/internal/handlers"
	"github.com/checknet/backend/internal/middleware"
	"github.com/checknet/backend/internal/services/fraudevent"
	"github.com/checknet/backend/internal/services/hashing"
	"github.com/checknet/backend/internal/services/matching"
	"github.com/checknet/backend/internal/services/pii"
	"github.com/checknet/backend/internal/services/tenantcfg"
	"github.com/checknet/backend/internal/services/trends"
)

// Services bundles the constructed services the routes need
type Services struct {
	Events       *fraudevent.Service
	Matcher      *matching.Service
	Trends       *trends.Service
	PII          *pii.Service
	Configs      *tenantcfg.Service
	Hasher       *hashing.Service
	KeyringStore *hashing.KeyringStore
}

// SetupRoutes registers all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, svcs Services) {
	eventHandler := handlers.NewFraudEventHandler(svcs.Events)
	matchingHandler := handlers.NewMatchingHandler(svcs.Matcher)
	trendsHandler := handlers.NewTrendsHandler(svcs.Trends)
	piiHandler := handlers.NewPIIHandler(svcs.PII)
	configHandler := handlers.NewTenantConfigHandler(svcs.Configs)
	pepperHandler := handlers.NewPepperHandler(svcs.KeyringStore, svcs.Hasher)

	rateLimiter := middleware.NewRateLimiter(50, 25, 100, 50)

	router.Use(middleware.SecureHeaders())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.Use(rateLimiter.IPRateLimiterMiddleware())
	api.Use(middleware.TenantContext(db))
	api.Use(rateLimiter.TenantRateLimiterMiddleware())
	{
		events := api.Group("/fraud-events")
		{
			events.POST("", eventHandler.CreateEvent)
			events.GET("", eventHandler.ListEvents)
			events.GET("/:id", eventHandler.GetEvent)
			events.PATCH("/:id", eventHandler.UpdateEvent)
			events.POST("/:id/submit", eventHandler.SubmitEvent)
			events.POST("/:id/withdraw", eventHandler.WithdrawEvent)
		}

		matches := api.Group("/network-matches")
		{
			matches.POST("/check", matchingHandler.CheckItem)
			matches.GET("/alerts", matchingHandler.ListAlerts)
			matches.POST("/alerts/:id/dismiss", matchingHandler.DismissAlert)
		}

		api.GET("/network-trends", trendsHandler.GetNetworkTrends)

		piiGroup := api.Group("/pii")
		{
			piiGroup.POST("/analyze", piiHandler.AnalyzeText)
			piiGroup.POST("/redact", piiHandler.RedactText)
		}

		cfgGroup := api.Group("/fraud-config")
		{
			cfgGroup.GET("", configHandler.GetConfig)
			cfgGroup.PUT("", configHandler.UpdateConfig)
		}
	}

	admin := router.Group("/admin")
	admin.Use(rateLimiter.IPRateLimiterMiddleware())
	admin.Use(middleware.AdminOnly(cfg.Server.AdminToken))
	{
		admin.GET("/pepper", pepperHandler.GetStatus)
		admin.POST("/pepper/rotate", pepperHandler.RotatePepper)
	}
}
