// Package cors answers browser preflight requests for the public site and dashboards.
package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	allowHeaders  = strings.Join([]string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"}, ", ")
	allowMethods  = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}, ", ")
	exposeHeaders = strings.Join([]string{"Content-Disposition", "Location", "X-Request-ID"}, ", ")
)

type policy struct {
	any     bool
	origins map[string]struct{}
}

// allows reports whether a browser on origin may read responses.
func (p policy) allows(origin string) bool {
	if p.any {
		return true
	}
	_, ok := p.origins[strings.TrimRight(origin, "/")]
	return ok
}

// New returns a CORS middleware honoring allowedOrigins; an empty list allows any origin.
// Credentials are allowed so the applicant tracking cookie survives cross-origin calls;
// an allowed origin is echoed, never answered with "*".
func New(allowedOrigins []string) gin.HandlerFunc {
	p := policy{any: len(allowedOrigins) == 0, origins: make(map[string]struct{}, len(allowedOrigins))}
	for _, origin := range allowedOrigins {
		p.origins[strings.TrimRight(origin, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		allowed := origin != "" && p.allows(origin)
		if allowed {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Expose-Headers", exposeHeaders)
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		if origin != "" && !allowed {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Max-Age", "600")
		c.AbortWithStatus(http.StatusNoContent)
	}
}
