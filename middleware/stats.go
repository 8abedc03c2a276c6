package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/seo-compare/engine/stats"
)

// Usage records one visit per client IP per month. Run and error
// counters are recorded at the pipeline level where outcomes are known.
func Usage(usage *stats.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		if usage != nil {
			usage.TrackVisitor(c.ClientIP())
		}
		c.Next()
	}
}
