package cors_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/embrake/aquilify"
	"github.com/embrake/aquilify/middleware/cors"
)

func setupRouter(options ...cors.Options) *aquilify.Router {
	router := aquilify.NewRouter()
	router.Use(cors.Middleware(options...))
	router.Get("/resource", func(ctx *aquilify.Context) {
		ctx.Text("ok")
	})
	return router
}

func TestMiddlewareAllowsAllOriginsByDefault(t *testing.T) {
	router := setupRouter()

	req := httptest.NewRequest("GET", "/resource", nil)
	req.Header.Set("Origin", "https://example.com")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, 200, res.Code)
	assert.Equal(t, "*", res.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", res.Header().Get("Vary"))
	assert.Equal(t, "ok", res.Body.String())
}

func TestMiddlewareIgnoresSameOriginRequests(t *testing.T) {
	router := setupRouter()

	req := httptest.NewRequest("GET", "/resource", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Empty(t, res.Header().Get("Access-Control-Allow-Origin"))
}

func TestMiddlewarePreflight(t *testing.T) {
	router := setupRouter()

	req := httptest.NewRequest("OPTIONS", "/resource", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, 204, res.Code)
	assert.Equal(t, "*", res.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, res.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Equal(t, "Content-Type", res.Header().Get("Access-Control-Allow-Headers"))
	assert.Empty(t, res.Body.String())
}

func TestMiddlewareRestrictedOrigins(t *testing.T) {
	router := setupRouter(cors.Options{
		AllowOrigins: []string{"https://trusted.example.com"},
	})

	req := httptest.NewRequest("GET", "/resource", nil)
	req.Header.Set("Origin", "https://trusted.example.com")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, "https://trusted.example.com", res.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/resource", nil)
	req.Header.Set("Origin", "https://evil.example.net")
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Empty(t, res.Header().Get("Access-Control-Allow-Origin"))
}

func TestMiddlewareWildcardSubdomains(t *testing.T) {
	router := setupRouter(cors.Options{
		AllowOrigins: []string{"https://*.example.com"},
	})

	req := httptest.NewRequest("GET", "/resource", nil)
	req.Header.Set("Origin", "https://app.example.com")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, "https://app.example.com", res.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/resource", nil)
	req.Header.Set("Origin", "https://example.org")
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Empty(t, res.Header().Get("Access-Control-Allow-Origin"))
}

func TestMiddlewareCredentialsEchoOrigin(t *testing.T) {
	router := setupRouter(cors.Options{
		AllowCredentials: true,
	})

	req := httptest.NewRequest("GET", "/resource", nil)
	req.Header.Set("Origin", "https://example.com")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, "https://example.com", res.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", res.Header().Get("Access-Control-Allow-Credentials"))
}
