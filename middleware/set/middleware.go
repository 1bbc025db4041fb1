package set

import "github.com/embrake/aquilify"

// Middleware creates middleware that sets a value on the request context.
// The value is set once when the middleware is created and reused for all
// requests. Values set on the context only exist for the duration of that
// request's handler chain.
//
// Use this when you want to share a constant value across handlers for each
// request.
//
// Example:
//
//	router.Use(set.Middleware("apiVersion", "v1"))
//
//	router.Get("/info", func(ctx *aquilify.Context) {
//	    version := ctx.MustGet("apiVersion").(string)  // "v1"
//	    ctx.JSON(map[string]string{"version": version})
//	})
//
// See also: setfn.Middleware for dynamic values.
func Middleware[V any](key string, value V) func(ctx *aquilify.Context) {
	return func(ctx *aquilify.Context) {
		ctx.Set(key, value)
		ctx.Next()
	}
}
