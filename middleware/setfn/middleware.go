package setfn

import "github.com/embrake/aquilify"

// Middleware creates middleware that sets a dynamically-generated value on
// the request context. The valueFn function is called for each request to
// generate a fresh value. Values set on the context only exist for the
// duration of that request's handler chain.
//
// Use this when you need a unique value for each request (e.g., timestamps,
// UUIDs).
//
// Example:
//
//	router.Use(setfn.Middleware("receivedAt", time.Now))
//
//	router.Get("/data", func(ctx *aquilify.Context) {
//	    receivedAt := ctx.MustGet("receivedAt").(time.Time)
//	    ctx.JSON(map[string]any{"receivedAt": receivedAt})
//	})
//
// See also: set.Middleware for constant values.
func Middleware[V any](key string, valueFn func() V) func(ctx *aquilify.Context) {
	return func(ctx *aquilify.Context) {
		ctx.Set(key, valueFn())
		ctx.Next()
	}
}
