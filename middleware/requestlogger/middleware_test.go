package requestlogger_test

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/embrake/aquilify"
	"github.com/embrake/aquilify/middleware/requestlogger"
)

func setupRouter(logger *zap.Logger) *aquilify.Router {
	router := aquilify.NewRouter()
	router.Use(requestlogger.Middleware(logger))
	router.Get("/ok", func(ctx *aquilify.Context) {
		ctx.Text("ok")
	})
	router.Get("/broken", func(ctx *aquilify.Context) {
		ctx.Error = errors.New("boom")
	})
	return router
}

func TestMiddlewareLogsRequests(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := setupRouter(zap.New(core))

	req := httptest.NewRequest("GET", "/ok", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "request handled", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/ok", fields["path"])
	assert.Equal(t, int64(200), fields["status"])
}

func TestMiddlewareLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := setupRouter(zap.New(core))

	req := httptest.NewRequest("GET", "/broken", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "request failed", entries[0].Message)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)
}

func TestMiddlewareLogsNotFound(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := setupRouter(zap.New(core))

	req := httptest.NewRequest("GET", "/missing", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(404), entries[0].ContextMap()["status"])
}

func TestMiddlewareAcceptsNilLogger(t *testing.T) {
	router := setupRouter(nil)

	req := httptest.NewRequest("GET", "/ok", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, "ok", res.Body.String())
}
