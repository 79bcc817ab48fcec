package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sciclub-api/internal/models"
	appErrors "github.com/noah-isme/sciclub-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Wrap(errors.New("bad signature"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	return s.claims, nil
}

type recordedViews struct {
	urls []string
}

func (r *recordedViews) Record(ctx context.Context, pageURL string) {
	r.urls = append(r.urls, pageURL)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handlers...)
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.POST("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return router
}

func serve(router *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	router.ServeHTTP(rec, req)
	return rec
}

func TestJWTRequiresBearerToken(t *testing.T) {
	router := newRouter(JWT(stubValidator{claims: &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}}))

	rec := serve(router, http.MethodGet, "/ok", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, bearerChallenge, rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/ok", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/ok", "Bearer ").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/ok", "Bearer bad").Code)
	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/ok", "Bearer good").Code)
}

func TestRequireRoles(t *testing.T) {
	advisor := stubValidator{claims: &models.JWTClaims{UserID: "a1", Role: models.RoleAdvisor}}
	router := newRouter(JWT(advisor), RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodGet, "/ok", "Bearer good").Code)

	router = newRouter(JWT(advisor), RequireRoles(models.RoleAdmin, models.RoleAdvisor))
	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/ok", "Bearer good").Code)

	router = newRouter(RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/ok", "").Code)
}

func TestCurrentUser(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := CurrentUser(c)
	require.False(t, ok)

	c.Set(ContextUserKey, &models.JWTClaims{UserID: "u1"})
	claims, ok := CurrentUser(c)
	require.True(t, ok)
	assert.Equal(t, "u1", claims.UserID)
}

func TestPageViewsRecordsSuccessfulGets(t *testing.T) {
	views := &recordedViews{}
	router := newRouter(PageViews(views))

	serve(router, http.MethodGet, "/ok", "")
	serve(router, http.MethodGet, "/missing", "")
	serve(router, http.MethodPost, "/ok", "")

	assert.Equal(t, []string{"/ok"}, views.urls)
}

type observedRequest struct {
	method, route string
	status        int
}

type recordingObserver struct {
	seen []observedRequest
}

func (r *recordingObserver) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	r.seen = append(r.seen, observedRequest{method: method, route: route, status: status})
}

func TestMetricsObservesRoutesExceptSkipped(t *testing.T) {
	observer := &recordingObserver{}
	router := newRouter(observe(observer, []string{"/missing"}))

	serve(router, http.MethodGet, "/ok", "")
	serve(router, http.MethodGet, "/missing", "")
	serve(router, http.MethodGet, "/nowhere", "")

	assert.Equal(t, []observedRequest{
		{method: http.MethodGet, route: "/ok", status: http.StatusNoContent},
		{method: http.MethodGet, route: unmatchedRoute, status: http.StatusNotFound},
	}, observer.seen)
}

func TestMetricsWithoutServiceIsPassThrough(t *testing.T) {
	router := newRouter(Metrics(nil))
	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/ok", "").Code)
}
