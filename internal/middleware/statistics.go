package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type pageViewRecorder interface {
	Record(ctx context.Context, pageURL string)
}

// PageViews records successful GET requests on the routes it wraps.
func PageViews(recorder pageViewRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if recorder == nil || c.Request.Method != http.MethodGet {
			return
		}
		if status := c.Writer.Status(); status < 200 || status >= 300 {
			return
		}
		recorder.Record(c.Request.Context(), c.Request.URL.Path)
	}
}
