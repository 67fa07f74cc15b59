package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func httpEntry(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	entries := recorded.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	return entries[0]
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("logs request with correlation fields", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set(GinRequestIDKey, "req-123")
			c.Set(GinUserIDKey, "7")
		})
		router.Use(GinMiddleware(zap.New(core)))

		var ctxRequestID string
		router.GET("/payment-sessions", func(c *gin.Context) {
			ctxRequestID = GetRequestID(c.Request.Context())
			L(c.Request.Context()).Info("inside handler")
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payment-sessions?page=2", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "req-123", ctxRequestID)

		entry := httpEntry(t, recorded)
		assert.Equal(t, zapcore.InfoLevel, entry.Level)
		fields := entry.ContextMap()
		assert.Equal(t, "req-123", fields["request_id"])
		assert.Equal(t, "7", fields["user_id"])
		assert.Equal(t, "page=2", fields["query"])
		assert.Equal(t, int64(200), fields["status"])

		handlerEntries := recorded.FilterMessage("inside handler").All()
		require.Len(t, handlerEntries, 1)
		assert.Equal(t, "/payment-sessions", handlerEntries[0].ContextMap()["path"])
	})

	t.Run("client errors log at warn and server errors at error", func(t *testing.T) {
		for status, level := range map[int]zapcore.Level{
			http.StatusBadRequest:         zapcore.WarnLevel,
			http.StatusBadGateway:         zapcore.ErrorLevel,
			http.StatusNoContent:          zapcore.InfoLevel,
			http.StatusConflict:           zapcore.WarnLevel,
			http.StatusServiceUnavailable: zapcore.ErrorLevel,
		} {
			core, recorded := observer.New(zapcore.DebugLevel)
			router := gin.New()
			router.Use(GinMiddleware(zap.New(core)))
			code := status
			router.GET("/x", func(c *gin.Context) { c.Status(code) })

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

			assert.Equal(t, level, httpEntry(t, recorded).Level, "status %d", status)
		}
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"ERR_INTERNAL"`)
	assert.Len(t, recorded.FilterMessage("Panic recovered").All(), 1)
}

func TestGetGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))

	l := zap.NewExample()
	c.Set(ginLoggerKey, l)
	assert.Same(t, l, GetGinLogger(c))
}
