package observability

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MetricsRoute exposes the Prometheus exporter on a gin router. A process
// started without telemetry answers 503 so scrapers see it as down.
func MetricsRoute(exporter http.Handler) gin.HandlerFunc {
	if exporter == nil {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":   "Service unavailable",
				"message": "metrics exporter is not initialized",
			})
		}
	}
	return gin.WrapH(exporter)
}
