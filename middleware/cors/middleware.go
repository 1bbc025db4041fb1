// Package cors provides cross-origin resource sharing middleware. It answers
// preflight OPTIONS requests and attaches the appropriate Access-Control
// headers to matching responses.
package cors

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/embrake/aquilify"
)

// Options configures the CORS middleware. The zero value allows all origins
// with a standard method set and no credentials.
type Options struct {
	// AllowOrigins is the list of origins allowed to make cross-origin
	// requests. Supports "*" and subdomain wildcards such as
	// "https://*.example.com". Defaults to allowing all origins.
	AllowOrigins []string

	// AllowMethods is the list of methods advertised in preflight responses.
	// Defaults to GET, HEAD, POST, PUT, PATCH, DELETE.
	AllowMethods []string

	// AllowHeaders is the list of request headers advertised in preflight
	// responses. When empty, the headers requested by the preflight are
	// echoed back.
	AllowHeaders []string

	// ExposeHeaders is the list of response headers browsers may read.
	ExposeHeaders []string

	// AllowCredentials advertises support for credentialed requests. When
	// set, the matched origin is echoed back instead of "*".
	AllowCredentials bool

	// MaxAge is how long browsers may cache preflight results.
	MaxAge time.Duration
}

var defaultAllowMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost,
	http.MethodPut, http.MethodPatch, http.MethodDelete,
}

// Middleware returns CORS middleware with the given options.
func Middleware(options ...Options) func(ctx *aquilify.Context) {
	o := Options{}
	if len(options) != 0 {
		o = options[0]
	}
	if len(o.AllowOrigins) == 0 {
		o.AllowOrigins = []string{"*"}
	}
	if len(o.AllowMethods) == 0 {
		o.AllowMethods = defaultAllowMethods
	}

	allowMethods := strings.Join(o.AllowMethods, ", ")
	allowHeaders := strings.Join(o.AllowHeaders, ", ")
	exposeHeaders := strings.Join(o.ExposeHeaders, ", ")

	return func(ctx *aquilify.Context) {
		origin := ctx.RequestHeader("Origin")
		if origin == "" {
			ctx.Next()
			return
		}

		allowedOrigin, ok := matchOrigin(o, origin)
		if !ok {
			ctx.Next()
			return
		}

		ctx.AddHeader("Vary", "Origin")
		ctx.SetHeader("Access-Control-Allow-Origin", allowedOrigin)
		if o.AllowCredentials {
			ctx.SetHeader("Access-Control-Allow-Credentials", "true")
		}

		isPreflight := ctx.Method() == http.MethodOptions &&
			ctx.RequestHeader("Access-Control-Request-Method") != ""
		if !isPreflight {
			if exposeHeaders != "" {
				ctx.SetHeader("Access-Control-Expose-Headers", exposeHeaders)
			}
			ctx.Next()
			return
		}

		ctx.SetHeader("Access-Control-Allow-Methods", allowMethods)
		if allowHeaders != "" {
			ctx.SetHeader("Access-Control-Allow-Headers", allowHeaders)
		} else if requested := ctx.RequestHeader("Access-Control-Request-Headers"); requested != "" {
			ctx.SetHeader("Access-Control-Allow-Headers", requested)
		}
		if o.MaxAge > 0 {
			ctx.SetHeader("Access-Control-Max-Age", strconv.Itoa(int(o.MaxAge.Seconds())))
		}

		ctx.Status = http.StatusNoContent
	}
}

func matchOrigin(o Options, origin string) (string, bool) {
	for _, allowed := range o.AllowOrigins {
		if allowed == "*" {
			if o.AllowCredentials {
				return origin, true
			}
			return "*", true
		}
		if strings.EqualFold(allowed, origin) {
			return origin, true
		}
		if i := strings.Index(allowed, "*"); i != -1 {
			prefix, suffix := allowed[:i], allowed[i+1:]
			if len(origin) >= len(prefix)+len(suffix) &&
				strings.HasPrefix(origin, prefix) &&
				strings.HasSuffix(origin, suffix) {
				return origin, true
			}
		}
	}
	return "", false
}
