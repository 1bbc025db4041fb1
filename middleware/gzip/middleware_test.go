package gzip_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	kgzip "github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embrake/aquilify"
	"github.com/embrake/aquilify/middleware/gzip"
)

func setupRouter(body string, options ...gzip.Options) *aquilify.Router {
	router := aquilify.NewRouter()
	router.Use(gzip.Middleware(options...))
	router.Get("/resource", func(ctx *aquilify.Context) {
		ctx.Text(body)
	})
	return router
}

func TestMiddlewareCompressesLargeResponses(t *testing.T) {
	body := strings.Repeat("compress me please ", 100)
	router := setupRouter(body)

	req := httptest.NewRequest("GET", "/resource", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, "gzip", res.Header().Get("Content-Encoding"))
	assert.Less(t, res.Body.Len(), len(body))

	reader, err := kgzip.NewReader(res.Body)
	require.NoError(t, err)
	decompressed, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, body, string(decompressed))
}

func TestMiddlewareSkipsSmallResponses(t *testing.T) {
	router := setupRouter("tiny")

	req := httptest.NewRequest("GET", "/resource", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Empty(t, res.Header().Get("Content-Encoding"))
	assert.Equal(t, "tiny", res.Body.String())
}

func TestMiddlewareSkipsWithoutAcceptEncoding(t *testing.T) {
	body := strings.Repeat("compress me please ", 100)
	router := setupRouter(body)

	req := httptest.NewRequest("GET", "/resource", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Empty(t, res.Header().Get("Content-Encoding"))
	assert.Equal(t, body, res.Body.String())
}

func TestMiddlewareMinLengthOption(t *testing.T) {
	router := setupRouter(strings.Repeat("a", 64), gzip.Options{MinLength: 32})

	req := httptest.NewRequest("GET", "/resource", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, "gzip", res.Header().Get("Content-Encoding"))
}
