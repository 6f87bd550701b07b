package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/btc-dashboard-go/internal/logging"
)

// RequestLogger writes one structured log line per request.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		logging.LogAPIRequest(logger, c.Request.Method, path, c.Writer.Status(), time.Since(start), GetRequestID(c))
	}
}
