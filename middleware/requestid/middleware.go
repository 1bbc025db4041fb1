// Package requestid provides request ID middleware. Each request is tagged
// with a unique ID which is stored on the context under "requestID" and
// echoed in the X-Request-ID response header. An ID supplied by the client
// is propagated instead of generating a new one.
package requestid

import (
	"github.com/google/uuid"

	"github.com/embrake/aquilify"
)

// Header is the header used to carry the request ID.
const Header = "X-Request-ID"

// ContextKey is the context key under which the request ID is stored.
const ContextKey = "requestID"

// Options configures the request ID middleware.
type Options struct {
	// Generator produces new request IDs. Defaults to uuid.NewString.
	Generator func() string
}

// Middleware returns request ID middleware with the given options.
func Middleware(options ...Options) func(ctx *aquilify.Context) {
	o := Options{}
	if len(options) != 0 {
		o = options[0]
	}
	if o.Generator == nil {
		o.Generator = uuid.NewString
	}

	return func(ctx *aquilify.Context) {
		id := ctx.RequestHeader(Header)
		if id == "" {
			id = o.Generator()
		}

		ctx.Set(ContextKey, id)
		ctx.SetHeader(Header, id)

		ctx.Next()
	}
}

// FromContext returns the request ID stored on the context, or an empty
// string if the middleware has not run.
func FromContext(ctx *aquilify.Context) string {
	if id, ok := ctx.Get(ContextKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
