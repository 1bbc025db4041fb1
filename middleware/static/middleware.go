// Package static provides static file serving middleware. Files are served
// from a root directory with conditional request support inherited from
// Context.File. Requests that don't resolve to a file fall through to the
// rest of the chain.
package static

import (
	"errors"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/embrake/aquilify"
)

// Options configures the static file middleware.
type Options struct {
	// Root is the directory files are served from. Required.
	Root string

	// Prefix is the URL prefix stripped from the request path before
	// resolving it against Root. Use this when mounting the middleware under
	// a sub-path, e.g. Prefix "/static".
	Prefix string

	// Index is the file served for directory paths. Defaults to
	// "index.html". Set to "-" to disable index serving.
	Index string
}

// Middleware returns static file middleware with the given options. Panics
// if Root is empty.
func Middleware(options Options) func(ctx *aquilify.Context) {
	if options.Root == "" {
		panic("static middleware requires a root directory")
	}
	if options.Index == "" {
		options.Index = "index.html"
	}

	return func(ctx *aquilify.Context) {
		if ctx.Method() != http.MethodGet && ctx.Method() != http.MethodHead {
			ctx.Next()
			return
		}

		requestPath := ctx.Path()
		if options.Prefix != "" {
			if !strings.HasPrefix(requestPath, options.Prefix) {
				ctx.Next()
				return
			}
			requestPath = strings.TrimPrefix(requestPath, options.Prefix)
		}

		// Collapse any ".." segments before resolving against the root.
		cleanPath := path.Clean("/" + requestPath)
		filePath := filepath.Join(options.Root, filepath.FromSlash(cleanPath))

		err := ctx.File(filePath)
		if err == nil {
			return
		}

		if errors.Is(err, aquilify.ErrNotFound) && options.Index != "-" {
			indexPath := filepath.Join(filePath, options.Index)
			if err := ctx.File(indexPath); err == nil {
				return
			}
		}

		ctx.Next()
	}
}
