// Package gzip provides response compression middleware. It runs after the
// rest of the chain and compresses the buffered response body when the
// client accepts gzip and the body is worth compressing.
package gzip

import (
	"bytes"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/embrake/aquilify"
)

// Options configures the gzip middleware.
type Options struct {
	// MinLength is the minimum response body size, in bytes, worth
	// compressing. Defaults to 500.
	MinLength int

	// Level is the gzip compression level. Defaults to
	// gzip.DefaultCompression.
	Level int
}

// Middleware returns gzip compression middleware with the given options.
func Middleware(options ...Options) func(ctx *aquilify.Context) {
	o := Options{}
	if len(options) != 0 {
		o = options[0]
	}
	if o.MinLength == 0 {
		o.MinLength = 500
	}
	if o.Level == 0 {
		o.Level = gzip.DefaultCompression
	}

	return func(ctx *aquilify.Context) {
		ctx.Next()

		if !strings.Contains(ctx.RequestHeader("Accept-Encoding"), "gzip") {
			return
		}
		if ctx.Headers().Get("Content-Encoding") != "" {
			return
		}
		body := ctx.ResponseBody()
		if len(body) < o.MinLength {
			return
		}

		var buf bytes.Buffer
		writer, err := gzip.NewWriterLevel(&buf, o.Level)
		if err != nil {
			return
		}
		if _, err := writer.Write(body); err != nil {
			return
		}
		if err := writer.Close(); err != nil {
			return
		}

		// Skip if compression didn't help.
		if buf.Len() >= len(body) {
			return
		}

		ctx.SetResponseBody(buf.Bytes())
		ctx.SetHeader("Content-Encoding", "gzip")
		ctx.AddHeader("Vary", "Accept-Encoding")
	}
}
