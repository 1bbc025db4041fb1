package hsts_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/embrake/aquilify"
	"github.com/embrake/aquilify/middleware/hsts"
)

func setupRouter(options ...hsts.Options) *aquilify.Router {
	router := aquilify.NewRouter()
	router.Use(hsts.Middleware(options...))
	router.Get("/resource", func(ctx *aquilify.Context) {
		ctx.Text("ok")
	})
	return router
}

func TestMiddlewareDefaultPolicy(t *testing.T) {
	router := setupRouter()

	req := httptest.NewRequest("GET", "/resource", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, "max-age=31536000; includeSubDomains",
		res.Header().Get("Strict-Transport-Security"))
}

func TestMiddlewareCustomPolicy(t *testing.T) {
	router := setupRouter(hsts.Options{
		MaxAge:            time.Hour,
		ExcludeSubdomains: true,
		Preload:           true,
	})

	req := httptest.NewRequest("GET", "/resource", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, "max-age=3600; preload",
		res.Header().Get("Strict-Transport-Security"))
}
