// Package timeout provides per-request deadline middleware. It attaches a
// deadline to the request context so downstream handlers can observe it, and
// answers with a 504 when the deadline expired without a response being
// produced.
package timeout

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/embrake/aquilify"
)

// Options configures the timeout middleware.
type Options struct {
	// Timeout is the per-request deadline. Defaults to 30 seconds.
	Timeout time.Duration
}

// Middleware returns timeout middleware with the given options. Handlers
// must honor ctx.Context() for the deadline to interrupt their work.
func Middleware(options ...Options) func(ctx *aquilify.Context) {
	o := Options{}
	if len(options) != 0 {
		o = options[0]
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}

	return func(ctx *aquilify.Context) {
		reqCtx, cancel := context.WithTimeout(ctx.Context(), o.Timeout)
		defer cancel()

		aquilify.CtxSetRequest(ctx, ctx.Request().WithContext(reqCtx))

		ctx.Next()

		if !errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return
		}
		if ctx.Error != nil && !errors.Is(ctx.Error, context.DeadlineExceeded) {
			return
		}
		if ctx.Error == nil && (ctx.Status != 0 || ctx.HasResponseBody()) {
			return
		}

		ctx.Error = nil
		ctx.Status = http.StatusGatewayTimeout
		ctx.Text("Gateway Timeout")
	}
}
