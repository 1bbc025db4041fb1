package static_test

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embrake/aquilify"
	"github.com/embrake/aquilify/middleware/static"
)

func setupRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "hello.txt"), []byte("hello world"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "index.html"), []byte("<h1>home</h1>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "docs", "index.html"), []byte("<h1>docs</h1>"), 0o644))
	return root
}

func setupRouter(options static.Options) *aquilify.Router {
	router := aquilify.NewRouter()
	router.Use(static.Middleware(options))
	router.Get("/api/data", func(ctx *aquilify.Context) {
		ctx.Text("from handler")
	})
	return router
}

func doGet(router *aquilify.Router, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestMiddlewareServesFiles(t *testing.T) {
	router := setupRouter(static.Options{Root: setupRoot(t)})

	res := doGet(router, "/hello.txt")
	assert.Equal(t, 200, res.Code)
	assert.Equal(t, "hello world", res.Body.String())
	assert.Contains(t, res.Header().Get("Content-Type"), "text/plain")
	assert.NotEmpty(t, res.Header().Get("ETag"))
}

func TestMiddlewareServesDirectoryIndex(t *testing.T) {
	router := setupRouter(static.Options{Root: setupRoot(t)})

	res := doGet(router, "/docs")
	assert.Equal(t, 200, res.Code)
	assert.Equal(t, "<h1>docs</h1>", res.Body.String())
}

func TestMiddlewareDisabledIndex(t *testing.T) {
	router := setupRouter(static.Options{Root: setupRoot(t), Index: "-"})

	res := doGet(router, "/docs")
	assert.Equal(t, 404, res.Code)
}

func TestMiddlewareFallsThroughToHandlers(t *testing.T) {
	router := setupRouter(static.Options{Root: setupRoot(t)})

	res := doGet(router, "/api/data")
	assert.Equal(t, 200, res.Code)
	assert.Equal(t, "from handler", res.Body.String())
}

func TestMiddlewareMissingFileIs404(t *testing.T) {
	router := setupRouter(static.Options{Root: setupRoot(t)})

	res := doGet(router, "/nope.txt")
	assert.Equal(t, 404, res.Code)
}

func TestMiddlewarePrefix(t *testing.T) {
	router := setupRouter(static.Options{Root: setupRoot(t), Prefix: "/static"})

	res := doGet(router, "/static/hello.txt")
	assert.Equal(t, 200, res.Code)
	assert.Equal(t, "hello world", res.Body.String())

	res = doGet(router, "/hello.txt")
	assert.Equal(t, 404, res.Code)
}

func TestMiddlewareBlocksPathTraversal(t *testing.T) {
	root := setupRoot(t)
	parent := filepath.Dir(root)
	require.NoError(t, os.WriteFile(
		filepath.Join(parent, "secret.txt"), []byte("secret"), 0o644))

	router := setupRouter(static.Options{Root: root})

	res := doGet(router, "/../secret.txt")
	assert.NotEqual(t, "secret", res.Body.String())
}

func TestMiddlewareSkipsNonGetRequests(t *testing.T) {
	router := setupRouter(static.Options{Root: setupRoot(t)})

	req := httptest.NewRequest("POST", "/hello.txt", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, 404, res.Code)
}

func TestMiddlewareConditionalRequests(t *testing.T) {
	router := setupRouter(static.Options{Root: setupRoot(t)})

	first := doGet(router, "/hello.txt")
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest("GET", "/hello.txt", nil)
	req.Header.Set("If-None-Match", etag)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, 304, res.Code)
	assert.Empty(t, res.Body.String())
}

func TestMiddlewareRequiresRoot(t *testing.T) {
	assert.Panics(t, func() {
		static.Middleware(static.Options{})
	})
}
