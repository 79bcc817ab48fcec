package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sciclub-api/internal/service"
)

const unmatchedRoute = "unmatched"

type requestObserver interface {
	ObserveHTTPRequest(method, route string, status int, elapsed time.Duration)
}

// Metrics observes every request by route template. Routes listed in skip
// (probes, the scrape endpoint) are served without being counted.
func Metrics(metrics *service.MetricsService, skip ...string) gin.HandlerFunc {
	if metrics == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return observe(metrics, skip)
}

func observe(observer requestObserver, skip []string) gin.HandlerFunc {
	ignored := make(map[string]struct{}, len(skip))
	for _, route := range skip {
		ignored[route] = struct{}{}
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if _, ok := ignored[route]; ok && route != "" {
			c.Next()
			return
		}
		started := time.Now()
		c.Next()
		if route == "" {
			route = unmatchedRoute
		}
		observer.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(started))
	}
}
