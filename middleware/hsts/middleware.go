// Package hsts provides middleware that attaches a Strict-Transport-Security
// header to every response.
package hsts

import (
	"strconv"
	"time"

	"github.com/embrake/aquilify"
)

// Options configures the HSTS middleware.
type Options struct {
	// MaxAge is how long browsers should remember to only use HTTPS.
	// Defaults to one year.
	MaxAge time.Duration

	// ExcludeSubdomains leaves subdomains out of the policy. By default
	// subdomains are included.
	ExcludeSubdomains bool

	// Preload adds the preload directive for HSTS preload list submission.
	Preload bool
}

// Middleware returns HSTS middleware with the given options.
func Middleware(options ...Options) func(ctx *aquilify.Context) {
	o := Options{}
	if len(options) != 0 {
		o = options[0]
	}
	if o.MaxAge == 0 {
		o.MaxAge = 365 * 24 * time.Hour
	}

	value := "max-age=" + strconv.Itoa(int(o.MaxAge.Seconds()))
	if !o.ExcludeSubdomains {
		value += "; includeSubDomains"
	}
	if o.Preload {
		value += "; preload"
	}

	return func(ctx *aquilify.Context) {
		ctx.SetHeader("Strict-Transport-Security", value)
		ctx.Next()
	}
}
