// Package requestid tags every request with a correlation identifier.
package requestid

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerKey  = "X-Request-ID"
	contextKey = "request_id"
	maxLength  = 128
)

type ctxKey struct{}

// Middleware reuses a caller supplied X-Request-ID or assigns a new UUID. The
// id is echoed in the response and carried on the request context so queued
// work started by the request can be traced back to it.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerKey)
		if !acceptable(id) {
			id = uuid.NewString()
		}

		c.Set(contextKey, id)
		c.Request = c.Request.WithContext(NewContext(c.Request.Context(), id))
		c.Writer.Header().Set(headerKey, id)

		c.Next()
	}
}

// acceptable rejects empty, oversized and non-printable caller ids.
func acceptable(id string) bool {
	if id == "" || len(id) > maxLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// Value returns the request ID stored in the Gin context.
func Value(c *gin.Context) string {
	if v, exists := c.Get(contextKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// NewContext returns ctx carrying id.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request id carried by ctx, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
