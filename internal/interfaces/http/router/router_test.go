package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mosesmbadi/easymed-sub000/internal/interfaces/http/handler"
	"github.com/mosesmbadi/easymed-sub000/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	receipts := NewDomainGroup("receipts", "/receipts")
	receipts.GET("", func(c *gin.Context) { c.String(http.StatusOK, "list") })
	r.Register(receipts).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/receipts")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "list", w.Body.String())
}

func TestRouterUseAppliesToEveryGroup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusUnauthorized)
	})

	r.Register(
		NewDomainGroup("patients", "/patients").GET("", func(c *gin.Context) { c.Status(http.StatusOK) }),
		NewDomainGroup("insurers", "/insurers").GET("", func(c *gin.Context) { c.Status(http.StatusOK) }),
	).Setup()

	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/patients").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/insurers").Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("payment-sessions", "/payment-sessions")
		assert.Equal(t, "payment-sessions", g.Name())
		assert.Equal(t, "/payment-sessions", g.Prefix())
	})

	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("payment-sessions", "/payment-sessions").
			POST("", func(c *gin.Context) { c.Status(http.StatusCreated) }).
			GET("/:id", func(c *gin.Context) { c.Status(http.StatusOK) }).
			PUT("/:id/amount", func(c *gin.Context) { c.Status(http.StatusOK) }).
			DELETE("/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		g.RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method string
			path   string
			status int
		}{
			{http.MethodPost, "/api/v1/payment-sessions", http.StatusCreated},
			{http.MethodGet, "/api/v1/payment-sessions/abc", http.StatusOK},
			{http.MethodPut, "/api/v1/payment-sessions/abc/amount", http.StatusOK},
			{http.MethodDelete, "/api/v1/payment-sessions/abc", http.StatusNoContent},
		}
		for _, tt := range tests {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, tt.status, w.Code, "%s %s", tt.method, tt.path)
		}
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("receipts", "/receipts")
		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})
		g.GET("", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/receipts")
		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})

	t.Run("subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("suppliers", "/suppliers")
		g.Group("statements", "/statements").GET("", func(c *gin.Context) { c.String(http.StatusOK, "statements") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/suppliers/statements")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "statements", w.Body.String())
	})
}

func testHandlers() Handlers {
	return Handlers{
		Sessions:  handler.NewPaymentSessionHandler(nil),
		Reference: handler.NewReferenceHandler(nil),
		Receipts:  handler.NewReceiptHandler(nil),
		Suppliers: handler.NewSupplierHandler(nil),
		System:    handler.NewSystemHandler("easymed-billing", "test"),
	}
}

func TestDomainGroupsRouteTable(t *testing.T) {
	engine := gin.New()
	h := testHandlers()
	NewRouter(engine).Register(DomainGroups(h)...).Setup()
	RegisterHealth(engine, h.System)

	var got []string
	for _, route := range engine.Routes() {
		got = append(got, route.Method+" "+route.Path)
	}
	sort.Strings(got)

	want := []string{
		"DELETE /api/v1/payment-sessions/:id",
		"GET /api/v1/insurers",
		"GET /api/v1/patients",
		"GET /api/v1/payment-modes",
		"GET /api/v1/payment-modes/breakdown",
		"GET /api/v1/payment-sessions/:id",
		"GET /api/v1/payment-sessions/:id/invoices",
		"GET /api/v1/payment-sessions/:id/summary",
		"GET /api/v1/receipts",
		"GET /api/v1/receipts/:id/document",
		"GET /api/v1/suppliers",
		"GET /api/v1/suppliers/:id/invoices",
		"GET /api/v1/system/info",
		"GET /api/v1/system/ping",
		"GET /health/live",
		"GET /health/ready",
		"POST /api/v1/payment-sessions",
		"POST /api/v1/payment-sessions/:id/submit",
		"POST /api/v1/supplier-payments",
		"PUT /api/v1/payment-sessions/:id/amount",
		"PUT /api/v1/payment-sessions/:id/category",
		"PUT /api/v1/payment-sessions/:id/customer",
		"PUT /api/v1/payment-sessions/:id/details",
		"PUT /api/v1/payment-sessions/:id/invoices",
	}
	assert.Equal(t, want, got)
}

var routerAnnotation = regexp.MustCompile(`(?m)^// @Router\s+(\S+) \[(\w+)\]$`)

// Every mounted route carries a godoc @Router annotation with the same method and path.
func TestRouteAnnotationsMatchRoutes(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "handler", "*.go"))
	require.NoError(t, err)

	var documented []string
	for _, file := range files {
		if strings.HasSuffix(file, "_test.go") {
			continue
		}
		src, err := os.ReadFile(file)
		require.NoError(t, err)
		for _, m := range routerAnnotation.FindAllStringSubmatch(string(src), -1) {
			path := strings.ReplaceAll(m[1], "{id}", ":id")
			if !strings.HasPrefix(path, "/health/") {
				path = "/api/v1" + path
			}
			documented = append(documented, strings.ToUpper(m[2])+" "+path)
		}
	}
	sort.Strings(documented)

	engine := gin.New()
	h := testHandlers()
	NewRouter(engine).Register(DomainGroups(h)...).Setup()
	RegisterHealth(engine, h.System)
	var mounted []string
	for _, route := range engine.Routes() {
		mounted = append(mounted, route.Method+" "+route.Path)
	}
	sort.Strings(mounted)

	assert.Equal(t, mounted, documented)
}

func TestAPIRequiresBearerToken(t *testing.T) {
	engine := gin.New()
	h := testHandlers()
	NewRouter(engine).
		Use(middleware.BearerAuth(middleware.AuthConfig{})).
		Register(DomainGroups(h)...).
		Setup()
	RegisterHealth(engine, h.System)

	w := serve(engine, http.MethodPost, "/api/v1/payment-sessions")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_UNAUTHORIZED")

	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/receipts").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health/live").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health/ready").Code)
}
