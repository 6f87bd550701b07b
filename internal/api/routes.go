package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/irfndi/btc-dashboard-go/internal/api/handlers"
	"github.com/irfndi/btc-dashboard-go/internal/middleware"
)

// Handlers groups the endpoint handlers mounted by SetupRoutes.
type Handlers struct {
	Dashboard *handlers.DashboardHandler
	Cache     *handlers.CacheHandler
	Health    *handlers.HealthHandler
}

// NewRouter builds the gin engine with recovery, tracing, request IDs and
// access logging installed.
func NewRouter(serviceName string, logger *logrus.Logger, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithField("panic", recovered).Error("Recovered from handler panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}))
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.RequestID())
	router.Use(middleware.TraceAnnotations())
	router.Use(middleware.RequestLogger(logger))

	SetupRoutes(router, h)
	return router
}

func SetupRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", h.Health.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/bitcoin-historical/:range", h.Dashboard.GetHistorical)
		api.GET("/nodes-latest", h.Dashboard.GetNodes)
		api.GET("/market-structure", h.Dashboard.GetMarketStructure)
		api.GET("/onchain-supply", h.Dashboard.GetOnchainSupply)
		api.GET("/miner-economics", h.Dashboard.GetMinerEconomics)
		api.GET("/fx-rate", h.Dashboard.GetFXRate)
		api.GET("/macro-context", h.Dashboard.GetMacroContext)
		api.GET("/adoption-usage", h.Dashboard.GetAdoptionUsage)

		cache := api.Group("/cache")
		{
			cache.GET("/stats", h.Cache.GetCacheStats)
			cache.GET("/stats/:resource", h.Cache.GetCacheStatsByResource)
			cache.POST("/stats/reset", h.Cache.ResetCacheStats)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}
