// Package httpsredirect provides middleware that redirects plain HTTP
// requests to their HTTPS equivalent.
package httpsredirect

import (
	"net/http"

	"github.com/embrake/aquilify"
)

// Middleware returns HTTPS redirect middleware. Requests already made over
// TLS, or forwarded as HTTPS by a proxy, pass through untouched.
func Middleware() func(ctx *aquilify.Context) {
	return func(ctx *aquilify.Context) {
		req := ctx.Request()

		if req.TLS != nil || ctx.RequestHeader("X-Forwarded-Proto") == "https" {
			ctx.Next()
			return
		}

		url := *req.URL
		url.Scheme = "https"
		url.Host = ctx.Host()

		_ = ctx.Redirect(http.StatusTemporaryRedirect, url.String())
	}
}
