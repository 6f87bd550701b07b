package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/btc-dashboard-go/internal/cache"
)

// CacheHandler exposes TimedCache hit/miss statistics.
type CacheHandler struct {
	analytics *cache.Analytics
	backend   string
}

func NewCacheHandler(analytics *cache.Analytics, backend string) *CacheHandler {
	return &CacheHandler{analytics: analytics, backend: backend}
}

// GetCacheStats handles GET /api/cache/stats
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.analytics.Snapshot(h.backend))
}

// GetCacheStatsByResource handles GET /api/cache/stats/:resource
func (h *CacheHandler) GetCacheStatsByResource(c *gin.Context) {
	key := c.Param("resource")
	for _, known := range h.analytics.Keys() {
		if known == key {
			c.JSON(http.StatusOK, h.analytics.GetStats(key))
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "no statistics for resource " + key})
}

// ResetCacheStats handles POST /api/cache/stats/reset
func (h *CacheHandler) ResetCacheStats(c *gin.Context) {
	h.analytics.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "cache statistics reset"})
}
