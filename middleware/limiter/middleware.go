// Package limiter provides sliding-window rate limiting middleware keyed by
// client IP. Requests over the limit receive a 429 with a Retry-After
// header.
package limiter

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/embrake/aquilify"
)

// Options configures the rate limiter.
type Options struct {
	// Limit is the maximum number of requests allowed per window per client.
	// Defaults to 100.
	Limit int

	// Window is the length of the sliding window. Defaults to one minute.
	Window time.Duration

	// ExemptPaths lists paths that bypass the limiter entirely.
	ExemptPaths []string

	// KeyFunc derives the client key from the context. Defaults to the
	// client IP.
	KeyFunc func(ctx *aquilify.Context) string
}

type clientWindow struct {
	timestamps []time.Time
}

// Middleware returns rate limiting middleware with the given options.
func Middleware(options ...Options) func(ctx *aquilify.Context) {
	o := Options{}
	if len(options) != 0 {
		o = options[0]
	}
	if o.Limit == 0 {
		o.Limit = 100
	}
	if o.Window == 0 {
		o.Window = time.Minute
	}
	if o.KeyFunc == nil {
		o.KeyFunc = func(ctx *aquilify.Context) string {
			return ctx.ClientIP()
		}
	}

	exempt := map[string]bool{}
	for _, path := range o.ExemptPaths {
		exempt[path] = true
	}

	var mu sync.Mutex
	clients := map[string]*clientWindow{}

	return func(ctx *aquilify.Context) {
		if exempt[ctx.Path()] {
			ctx.Next()
			return
		}

		key := o.KeyFunc(ctx)
		now := time.Now()
		cutoff := now.Add(-o.Window)

		mu.Lock()
		client, ok := clients[key]
		if !ok {
			client = &clientWindow{}
			clients[key] = client
		}

		kept := client.timestamps[:0]
		for _, t := range client.timestamps {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		client.timestamps = kept

		if len(client.timestamps) >= o.Limit {
			retryAfter := client.timestamps[0].Add(o.Window).Sub(now)
			mu.Unlock()

			seconds := int(retryAfter.Seconds() + 1)
			ctx.Status = http.StatusTooManyRequests
			ctx.SetHeader("Retry-After", strconv.Itoa(seconds))
			ctx.SetHeader("X-RateLimit-Limit", strconv.Itoa(o.Limit))
			ctx.SetHeader("X-RateLimit-Remaining", "0")
			ctx.Text("Too Many Requests")
			return
		}

		client.timestamps = append(client.timestamps, now)
		remaining := o.Limit - len(client.timestamps)
		mu.Unlock()

		ctx.SetHeader("X-RateLimit-Limit", strconv.Itoa(o.Limit))
		ctx.SetHeader("X-RateLimit-Remaining", strconv.Itoa(remaining))

		ctx.Next()
	}
}
