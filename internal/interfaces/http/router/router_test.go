package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterRegister(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("test", "/test")
	r.Register(group)

	assert.Len(t, r.registrars, 1)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group)
	r.Setup()

	// Test the route was registered
	req := httptest.NewRequest("GET", "/api/v1/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("treasury", "/treasury")
		assert.Equal(t, "treasury", g.Name())
		assert.Equal(t, "/treasury", g.Prefix())
	})

	t.Run("registers GET route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.GET("/items", func(c *gin.Context) {
			c.String(http.StatusOK, "items")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("GET", "/api/v1/test/items", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("registers POST route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.POST("/items", func(c *gin.Context) {
			c.String(http.StatusCreated, "created")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("POST", "/api/v1/test/items", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("registers PUT route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.PUT("/items/:id", func(c *gin.Context) {
			c.String(http.StatusOK, "updated")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("PUT", "/api/v1/test/items/123", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("registers DELETE route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.DELETE("/items/:id", func(c *gin.Context) {
			c.String(http.StatusNoContent, "")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("DELETE", "/api/v1/test/items/123", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")

		// Add middleware that sets a header
		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})

		g.GET("/items", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("GET", "/api/v1/test/items", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})

	t.Run("creates subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("treasury", "/treasury")

		checks := g.Group("checks", "/checks")
		checks.GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "checks list")
		})

		checkbooks := g.Group("checkbooks", "/checkbooks")
		checkbooks.GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "checkbooks list")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req1 := httptest.NewRequest("GET", "/api/v1/treasury/checks", nil)
		w1 := httptest.NewRecorder()
		engine.ServeHTTP(w1, req1)
		assert.Equal(t, http.StatusOK, w1.Code)
		assert.Equal(t, "checks list", w1.Body.String())

		req2 := httptest.NewRequest("GET", "/api/v1/treasury/checkbooks", nil)
		w2 := httptest.NewRecorder()
		engine.ServeHTTP(w2, req2)
		assert.Equal(t, http.StatusOK, w2.Code)
		assert.Equal(t, "checkbooks list", w2.Body.String())
	})
}

func TestMultipleDomainGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", func(c *gin.Context) {
		c.String(http.StatusOK, "info")
	})

	treasury := NewDomainGroup("treasury", "/treasury")
	treasury.GET("/cash-flow", func(c *gin.Context) {
		c.String(http.StatusOK, "cash-flow")
	})

	r.Register(system).Register(treasury)
	r.Setup()

	req1 := httptest.NewRequest("GET", "/api/v1/system/info", nil)
	w1 := httptest.NewRecorder()
	engine.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "info", w1.Body.String())

	req2 := httptest.NewRequest("GET", "/api/v1/treasury/cash-flow", nil)
	w2 := httptest.NewRecorder()
	engine.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "cash-flow", w2.Body.String())
}

func TestChainedMethodCalls(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	g := NewDomainGroup("test", "/test")
	g.GET("/a", func(c *gin.Context) { c.String(http.StatusOK, "a") }).
		POST("/b", func(c *gin.Context) { c.String(http.StatusOK, "b") }).
		PUT("/c", func(c *gin.Context) { c.String(http.StatusOK, "c") })

	r.Register(g).Setup()

	// All routes should be registered
	tests := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/test/a"},
		{"POST", "/api/v1/test/b"},
		{"PUT", "/api/v1/test/c"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "Route %s %s should work", tt.method, tt.path)
	}
}

func TestDomainGroupRoutes(t *testing.T) {
	noop := func(c *gin.Context) {}
	g := NewDomainGroup("treasury", "/treasury")
	g.GET("/cash-flow", noop)
	g.Group("checks", "/checks").POST("", noop).DELETE("/:id", noop)

	assert.Equal(t, []Route{
		{Method: http.MethodGet, Path: "/treasury/cash-flow"},
		{Method: http.MethodPost, Path: "/treasury/checks"},
		{Method: http.MethodDelete, Path: "/treasury/checks/:id"},
	}, g.Routes())
}

func TestTreasuryRoutes(t *testing.T) {
	routes := NewTreasuryRoutes(TreasuryHandlers{}).Routes()

	want := []Route{
		{http.MethodPost, "/treasury/checks"},
		{http.MethodGet, "/treasury/checks"},
		{http.MethodGet, "/treasury/checks/:id"},
		{http.MethodPut, "/treasury/checks/:id"},
		{http.MethodDelete, "/treasury/checks/:id"},
		{http.MethodGet, "/treasury/checks/:id/movements"},
		{http.MethodGet, "/treasury/checks/:id/projection"},
		{http.MethodPost, "/treasury/checks/:id/deposit"},
		{http.MethodPost, "/treasury/checks/:id/accredit"},
		{http.MethodPost, "/treasury/checks/:id/reject"},
		{http.MethodPost, "/treasury/checks/:id/apply-to-supplier"},
		{http.MethodPost, "/treasury/checks/:id/deliver"},
		{http.MethodPost, "/treasury/checks/:id/clear"},
		{http.MethodPost, "/treasury/checks/:id/void"},
		{http.MethodPost, "/treasury/checkbooks"},
		{http.MethodGet, "/treasury/checkbooks"},
		{http.MethodGet, "/treasury/checkbooks/:id"},
		{http.MethodPut, "/treasury/checkbooks/:id"},
		{http.MethodDelete, "/treasury/checkbooks/:id"},
		{http.MethodPost, "/treasury/checkbooks/:id/void"},
		{http.MethodPost, "/treasury/checkbooks/:id/block"},
		{http.MethodGet, "/treasury/bank-accounts/:id/checkbooks/suggest-range"},
		{http.MethodGet, "/treasury/bank-accounts/:id/ledger"},
		{http.MethodGet, "/treasury/cash-flow"},
	}
	assert.ElementsMatch(t, want, routes)
}
