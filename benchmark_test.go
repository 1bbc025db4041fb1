package aquilify_test

import (
	"net/http/httptest"
	"testing"

	"github.com/embrake/aquilify"
)

func BenchmarkPatternMatch(b *testing.B) {
	pattern, _ := aquilify.NewPattern("/users/:userId/posts/:postId")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = pattern.Match("/users/123/posts/456")
	}
}

func BenchmarkPatternMatchInto(b *testing.B) {
	pattern, _ := aquilify.NewPattern("/users/:userId/posts/:postId")
	params := make(aquilify.RouteParams)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = pattern.MatchInto("/users/123/posts/456", &params)
	}
}

func BenchmarkPatternMatchStatic(b *testing.B) {
	pattern, _ := aquilify.NewPattern("/api/users")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = pattern.Match("/api/users")
	}
}

func BenchmarkPatternMatchWildcard(b *testing.B) {
	pattern, _ := aquilify.NewPattern("/files/*")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = pattern.Match("/files/some/deep/path/to/file.txt")
	}
}

func BenchmarkPatternCompilation(b *testing.B) {
	patterns := []string{
		"/users",
		"/users/:id",
		"/users/:userId/posts/:postId",
		"/files/*",
		"/api/:version?/users",
		"/files/:path+",
		"/users/:id([0-9]+)",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, p := range patterns {
			_, _ = aquilify.NewPattern(p)
		}
	}
}

func BenchmarkRequestRouting(b *testing.B) {
	router := aquilify.NewRouter()
	router.Get("/bench", func(ctx *aquilify.Context) {
		ctx.Text("pong")
	})

	req := httptest.NewRequest("GET", "/bench", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)
	}
}

func BenchmarkRequestRoutingWithMiddleware(b *testing.B) {
	router := aquilify.NewRouter()

	router.Use(func(ctx *aquilify.Context) {
		ctx.Set("middleware1", true)
		ctx.Next()
	})

	router.Use(func(ctx *aquilify.Context) {
		ctx.Set("middleware2", true)
		ctx.Next()
	})

	router.Get("/bench", func(ctx *aquilify.Context) {
		ctx.Text("pong")
	})

	req := httptest.NewRequest("GET", "/bench", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)
	}
}

func BenchmarkParamsExtraction(b *testing.B) {
	router := aquilify.NewRouter()
	router.Get("/users/:userId/posts/:postId", func(ctx *aquilify.Context) {
		params := ctx.Params()
		_ = params.Get("userId")
		_ = params.Get("postId")
		ctx.Text("ok")
	})

	req := httptest.NewRequest("GET", "/users/123/posts/456", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)
	}
}

func BenchmarkContextGetSet(b *testing.B) {
	router := aquilify.NewRouter()
	router.Get("/bench", func(ctx *aquilify.Context) {
		for i := 0; i < b.N; i++ {
			ctx.Set("key", "value")
			_, _ = ctx.Get("key")
		}
		ctx.Text("ok")
	})

	req := httptest.NewRequest("GET", "/bench", nil)
	res := httptest.NewRecorder()

	b.ResetTimer()
	router.ServeHTTP(res, req)
}

func BenchmarkNotFound(b *testing.B) {
	router := aquilify.NewRouter()
	router.Get("/exists", func(ctx *aquilify.Context) {
		ctx.Text("ok")
	})

	req := httptest.NewRequest("GET", "/missing", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)
	}
}
