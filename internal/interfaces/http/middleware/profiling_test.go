package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mosesmbadi/easymed-sub000/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type labelCapture struct {
	route, method, resource string
	found                   bool
}

func profiledRouter(cfg middleware.ProfilingConfig, path string, captured *labelCapture) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ProfilingWithConfig(cfg))
	r.GET(path, func(c *gin.Context) {
		ctx := c.Request.Context()
		captured.route, captured.found = pprof.Label(ctx, middleware.ProfilingLabelRoute)
		captured.method, _ = pprof.Label(ctx, middleware.ProfilingLabelMethod)
		captured.resource, _ = pprof.Label(ctx, middleware.ProfilingLabelResource)
		c.Status(http.StatusOK)
	})
	return r
}

func TestProfilingMiddleware_LabelsRequest(t *testing.T) {
	var captured labelCapture
	r := profiledRouter(middleware.DefaultProfilingConfig(), "/api/v1/payment-sessions/:id/submit", &captured)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/payment-sessions/abc/submit", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, captured.found)
	assert.Equal(t, "/api/v1/payment-sessions/:id/submit", captured.route)
	assert.Equal(t, http.MethodGet, captured.method)
	assert.Equal(t, "payment-sessions", captured.resource)
}

func TestProfilingMiddleware_Disabled(t *testing.T) {
	var captured labelCapture
	r := profiledRouter(middleware.ProfilingConfig{Enabled: false}, "/api/v1/receipts", &captured)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/receipts", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, captured.found)
}

func TestProfilingMiddleware_SkipsHealth(t *testing.T) {
	var captured labelCapture
	r := profiledRouter(middleware.DefaultProfilingConfig(), "/health/live", &captured)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, captured.found)
}
