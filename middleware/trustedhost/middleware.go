// Package trustedhost provides Host header validation middleware. Requests
// whose Host does not match the allow-list receive a 400.
package trustedhost

import (
	"net"
	"net/http"
	"strings"

	"github.com/embrake/aquilify"
)

// Options configures the trusted host middleware.
type Options struct {
	// AllowedHosts is the list of hosts allowed to reach the application.
	// Supports subdomain wildcards such as "*.example.com". An empty list or
	// the entry "*" allows every host.
	AllowedHosts []string
}

// Middleware returns trusted host middleware with the given options.
func Middleware(options ...Options) func(ctx *aquilify.Context) {
	o := Options{}
	if len(options) != 0 {
		o = options[0]
	}

	allowAll := len(o.AllowedHosts) == 0
	for _, host := range o.AllowedHosts {
		if host == "*" {
			allowAll = true
		}
	}

	return func(ctx *aquilify.Context) {
		if allowAll {
			ctx.Next()
			return
		}

		host := ctx.Host()
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}

		for _, allowed := range o.AllowedHosts {
			if strings.EqualFold(allowed, host) {
				ctx.Next()
				return
			}
			if strings.HasPrefix(allowed, "*.") &&
				strings.HasSuffix(strings.ToLower(host), strings.ToLower(allowed[1:])) {
				ctx.Next()
				return
			}
		}

		ctx.Status = http.StatusBadRequest
		ctx.Text("Invalid host header")
	}
}
