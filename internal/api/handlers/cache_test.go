package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/btc-dashboard-go/internal/cache"
)

func newCacheRouter(a *cache.Analytics) *gin.Engine {
	h := NewCacheHandler(a, "file")
	router := gin.New()
	router.GET("/api/cache/stats", h.GetCacheStats)
	router.GET("/api/cache/stats/:resource", h.GetCacheStatsByResource)
	router.POST("/api/cache/stats/reset", h.ResetCacheStats)
	return router
}

func TestCacheHandler(t *testing.T) {
	a := cache.NewAnalytics()
	a.RecordHit("fx_gbp_per_usd")
	a.RecordMiss("fx_gbp_per_usd")
	a.RecordWrite("block_height", false)
	router := newCacheRouter(a)

	t.Run("all stats", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cache/stats", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var m cache.Metrics
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
		assert.Equal(t, "file", m.Backend)
		assert.Equal(t, int64(1), m.Overall.Hits)
		assert.Equal(t, int64(1), m.Overall.Misses)
		assert.Len(t, m.ByResource, 2)
	})

	t.Run("by resource", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cache/stats/fx_gbp_per_usd", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var s cache.Stats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
		assert.Equal(t, 0.5, s.HitRate)
	})

	t.Run("unknown resource", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cache/stats/nope", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("reset", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/cache/stats/reset", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, a.Keys())
	})
}
