package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareAssignsAndReusesIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen string
	router := gin.New()
	router.Use(Middleware())
	router.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(rec.Header().Get(headerKey))
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(headerKey))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerKey, "trace-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "trace-123", rec.Header().Get(headerKey))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerKey, strings.Repeat("x", 500))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Len(t, rec.Header().Get(headerKey), 36)
}

func TestMiddlewarePropagatesIDOnRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var fromCtx string
	router := gin.New()
	router.Use(Middleware())
	router.GET("/", func(c *gin.Context) {
		fromCtx = FromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerKey, "has space")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.NotEqual(t, "has space", rec.Header().Get(headerKey))
	assert.Equal(t, rec.Header().Get(headerKey), fromCtx)
	assert.Empty(t, FromContext(context.Background()))
}
