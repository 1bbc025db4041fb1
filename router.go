package aquilify

import (
	"errors"
	"net/http"
	"reflect"
	"sort"
	"strings"
)

// Router is the main HTTP router. It dispatches requests through a chain of
// pattern-bound handlers and middleware, and implements http.Handler for use
// with Go's standard HTTP servers.
//
// Router supports pattern-based routing, composable middleware, per-status
// error handlers, and route descriptors for API gateway integration. Routers
// can be mounted inside other routers to build modular applications.
type Router struct {
	// Debug enables the HTML diagnostic page for unhandled errors. Never
	// enable it for production traffic; the page exposes stack traces and
	// request internals.
	Debug bool

	routeDescriptorMap map[string]bool
	routeDescriptors   []*RouteDescriptor
	firstHandlerNode   *HandlerNode
	lastHandlerNode    *HandlerNode

	errorHandlers         map[int][]any
	catchAllErrorHandlers []any
}

var _ http.Handler = &Router{}
var _ Handler = &Router{}
var _ RouterHandler = &Router{}

// NewRouter creates and returns a new router.
func NewRouter() *Router {
	return &Router{}
}

// ServeHTTP implements the http.Handler interface. It dispatches the request
// through the handler chain, then writes the buffered response. Requests
// which finish the chain without producing a response get a 404, or a 405
// with an Allow header when a route matched the path under another method.
func (r *Router) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	ctx := NewContextWithNode(res, req, r.firstHandlerNode)

	ctx.Next()
	r.finalize(ctx)

	ctx.flush()
	ctx.free()
}

// Handle implements the Handler interface, allowing the router to be used as
// a handler in another router's middleware chain. This enables mounting one
// router inside another for modular routing organization.
//
// If the mounted router finishes its chain without producing a response, the
// request falls through to the rest of the outer router's chain. A response
// for this purpose is an error, a non-zero Status, a buffered body, or an
// inhibited response. Setting headers alone does not count; a handler that
// wants an intentionally empty reply should set Status explicitly (e.g. via
// NoContent).
func (r *Router) Handle(ctx *Context) {
	subCtx := NewSubContextWithNode(ctx, r.firstHandlerNode)
	subCtx.Next()
	subCtx.free()
	if ctx.Error == nil && !ctx.responseInhibited && ctx.Status == 0 && !ctx.HasResponseBody() {
		ctx.Next()
	}
}

// Use registers middleware handlers that execute for all requests. Middleware
// can optionally be scoped to a specific path pattern by providing a path as
// the first argument. Handlers are executed in the order they are registered.
//
// Without a path, middleware runs for all requests:
//
//	router.Use(loggingMiddleware, authMiddleware)
//
// With a path, middleware only runs for matching requests:
//
//	router.Use("/api/**", authMiddleware)
//
// Routers can also be used as middleware to create modular sub-routers:
//
//	apiRouter := aquilify.NewRouter()
//	router.Use("/api/**", apiRouter)
//
// Handlers must be of type Handler, HandlerFunc, or func(*Context).
func (r *Router) Use(handlers ...any) {
	mountPath := "/**"
	if len(handlers) != 0 {
		if customMountPath, ok := handlers[0].(string); ok {
			if !strings.HasSuffix(customMountPath, "/**") {
				customMountPath = strings.TrimSuffix(customMountPath, "/")
				customMountPath += "/**"
			}
			mountPath = customMountPath
			handlers = handlers[1:]
		}
	}

	r.bind(false, All, mountPath, handlers...)
}

// Get registers handlers for GET requests matching the path pattern.
func (r *Router) Get(path string, handlers ...any) {
	r.bind(false, Get, path, handlers...)
}

// Head registers handlers for HEAD requests matching the path pattern.
func (r *Router) Head(path string, handlers ...any) {
	r.bind(false, Head, path, handlers...)
}

// Post registers handlers for POST requests matching the path pattern.
func (r *Router) Post(path string, handlers ...any) {
	r.bind(false, Post, path, handlers...)
}

// Put registers handlers for PUT requests matching the path pattern.
func (r *Router) Put(path string, handlers ...any) {
	r.bind(false, Put, path, handlers...)
}

// Patch registers handlers for PATCH requests matching the path pattern.
func (r *Router) Patch(path string, handlers ...any) {
	r.bind(false, Patch, path, handlers...)
}

// Delete registers handlers for DELETE requests matching the path pattern.
func (r *Router) Delete(path string, handlers ...any) {
	r.bind(false, Delete, path, handlers...)
}

// Options registers handlers for OPTIONS requests matching the path pattern.
func (r *Router) Options(path string, handlers ...any) {
	r.bind(false, Options, path, handlers...)
}

// All registers handlers for requests of any method matching the path
// pattern.
func (r *Router) All(path string, handlers ...any) {
	r.bind(false, All, path, handlers...)
}

// Bind registers handlers for requests of the given method matching the
// path pattern. The method helpers (Get, Post, ...) are sugar over Bind.
//
// Example patterns:
//
//	router.Bind(aquilify.Get, "/users/list", listUsersHandler)
//	router.Bind(aquilify.Get, "/users/:id", getUserHandler)
//	router.Bind(aquilify.All, "/files/**", fileHandler)
//
// Handlers must be of type Handler, HandlerFunc, or func(*Context).
// Panics if no handlers are provided or if handlers are of an invalid type.
func (r *Router) Bind(method Method, path string, handlers ...any) {
	r.bind(false, method, path, handlers...)
}

// PublicGet is like Get but marks the route as part of the public API.
func (r *Router) PublicGet(path string, handlers ...any) {
	r.bind(true, Get, path, handlers...)
}

// PublicPost is like Post but marks the route as part of the public API.
func (r *Router) PublicPost(path string, handlers ...any) {
	r.bind(true, Post, path, handlers...)
}

// PublicPut is like Put but marks the route as part of the public API.
func (r *Router) PublicPut(path string, handlers ...any) {
	r.bind(true, Put, path, handlers...)
}

// PublicPatch is like Patch but marks the route as part of the public API.
func (r *Router) PublicPatch(path string, handlers ...any) {
	r.bind(true, Patch, path, handlers...)
}

// PublicDelete is like Delete but marks the route as part of the public API.
func (r *Router) PublicDelete(path string, handlers ...any) {
	r.bind(true, Delete, path, handlers...)
}

// PublicBind is like Bind but marks the route as part of the public API.
// This creates a route descriptor that can be discovered by API gateway
// frameworks for service discovery and routing. Use this for routes that
// should be exposed externally, and use Bind for internal-only routes.
//
// Route descriptors can be retrieved via RouteDescriptors() for gateway
// integration.
func (r *Router) PublicBind(method Method, path string, handlers ...any) {
	r.bind(true, method, path, handlers...)
}

// HandleError registers handlers that run when a request fails. With a
// status code as the first argument the handlers run only for that status;
// without one they run for any failed request that has no status-specific
// handler.
//
//	router.HandleError(404, func(ctx *aquilify.Context) {
//	    ctx.JSON(map[string]string{"error": "no such page"})
//	})
//
//	router.HandleError(func(ctx *aquilify.Context) {
//	    ctx.Text("something went wrong: " + ctx.Error.Error())
//	})
//
// Inside an error handler the context's Status is already set, and Error
// carries the failure when one occurred. Handlers must be of type Handler,
// HandlerFunc, or func(*Context).
func (r *Router) HandleError(statusOrHandler any, handlers ...any) {
	status := 0
	if statusCode, ok := statusOrHandler.(int); ok {
		status = statusCode
	} else {
		handlers = append([]any{statusOrHandler}, handlers...)
	}

	if len(handlers) == 0 {
		panic("no handlers provided")
	}
	assertIsHandler(handlers...)

	if status == 0 {
		r.catchAllErrorHandlers = append(r.catchAllErrorHandlers, handlers...)
		return
	}
	if r.errorHandlers == nil {
		r.errorHandlers = map[int][]any{}
	}
	r.errorHandlers[status] = append(r.errorHandlers[status], handlers...)
}

// RouteDescriptors returns a list of all public route descriptors collected
// by this router. Route descriptors are generated when the Public bind
// methods are used, and they describe the routes that this router can
// handle. This is useful for API gateway frameworks that need to discover
// and route to services.
func (r *Router) RouteDescriptors() []*RouteDescriptor {
	return r.routeDescriptors
}

// Lookup finds the pattern for a specific handler function. This is useful
// for generating paths from handlers (reverse routing). Returns the pattern
// as originally bound to the router (e.g., '/api/users/:id') and true if
// found. Recurses into nested routers.
func (r *Router) Lookup(handler any) (*Pattern, bool) {
	targetPtr := reflect.ValueOf(handler).Pointer()

	currentNode := r.firstHandlerNode
	for currentNode != nil {
		for _, h := range currentNode.Handlers {
			if reflect.ValueOf(h).Pointer() == targetPtr {
				return currentNode.Pattern, true
			}
			if router, ok := h.(RouterHandler); ok {
				if pattern, found := router.Lookup(handler); found {
					return pattern, true
				}
			}
		}
		currentNode = currentNode.Next
	}

	return nil, false
}

func (r *Router) bind(isPublic bool, method Method, path string, handlers ...any) {
	if len(handlers) == 0 {
		panic("no handlers provided")
	}
	assertIsHandler(handlers...)

	pattern, err := NewPattern(path)
	if err != nil {
		panic("invalid route pattern \"" + path + "\": " + err.Error())
	}

	if isPublic {
		r.addRouteDescriptor(method, pattern)
	}

	for _, handler := range handlers {
		routerHandler, ok := handler.(RouterHandler)
		if !ok {
			continue
		}

		// routers should not be bound with PublicBind
		if isPublic {
			panic("cannot use PublicBind with a RouterHandler. Use the Use method instead.")
		}

		for _, routeDescriptor := range routerHandler.RouteDescriptors() {
			mountPath := strings.TrimSuffix(path, "/**")
			subPattern, err := NewPattern(mountPath + routeDescriptor.Pattern.String())
			if err != nil {
				panic("invalid route pattern \"" + mountPath + routeDescriptor.Pattern.String() + "\": " + err.Error())
			}
			r.addRouteDescriptor(routeDescriptor.Method, subPattern)
		}
	}

	nextHandlerNode := &HandlerNode{
		Method:   method,
		Pattern:  pattern,
		Handlers: handlers,
	}

	if r.firstHandlerNode == nil {
		r.firstHandlerNode = nextHandlerNode
		r.lastHandlerNode = nextHandlerNode
	} else {
		r.lastHandlerNode.Next = nextHandlerNode
		r.lastHandlerNode = nextHandlerNode
	}
}

func assertIsHandler(handlers ...any) {
	for _, handler := range handlers {
		if _, ok := handler.(Handler); ok {
			continue
		} else if _, ok := handler.(HandlerFunc); ok {
			continue
		} else if _, ok := handler.(func(*Context)); ok {
			continue
		}

		panic("invalid handler type. Must be Handler, HandlerFunc, or " +
			"func(*Context). Got: " + reflect.TypeOf(handler).String())
	}
}

func (r *Router) addRouteDescriptor(method Method, pattern *Pattern) {
	key := string(method) + " " + pattern.String()
	if r.routeDescriptorMap == nil {
		r.routeDescriptorMap = map[string]bool{}
	}
	if r.routeDescriptors == nil {
		r.routeDescriptors = []*RouteDescriptor{}
	}
	if _, ok := r.routeDescriptorMap[key]; ok {
		return
	}
	r.routeDescriptorMap[key] = true
	r.routeDescriptors = append(r.routeDescriptors, &RouteDescriptor{
		Method:  method,
		Pattern: pattern,
	})
}

// finalize resolves the request outcome once the chain has completed:
// errors run through the error handlers, and responseless requests become
// 404 or 405.
func (r *Router) finalize(ctx *Context) {
	if ctx.Error != nil {
		status := errorStatus(ctx.Error)
		ctx.Status = status
		ctx.responseBody = nil
		r.respondWithError(ctx, status)
		return
	}

	if ctx.responseInhibited || ctx.Status != 0 || ctx.HasResponseBody() {
		return
	}

	if len(ctx.matchedMethods) != 0 {
		methods := make([]string, 0, len(ctx.matchedMethods))
		for method := range ctx.matchedMethods {
			methods = append(methods, string(method))
		}
		sort.Strings(methods)
		ctx.SetHeader("Allow", strings.Join(methods, ", "))
		ctx.Status = http.StatusMethodNotAllowed
		r.respondWithError(ctx, http.StatusMethodNotAllowed)
		return
	}

	ctx.Status = http.StatusNotFound
	r.respondWithError(ctx, http.StatusNotFound)
}

func (r *Router) respondWithError(ctx *Context, status int) {
	handlers := r.errorHandlers[status]
	if len(handlers) == 0 {
		handlers = r.catchAllErrorHandlers
	}

	handlerFailed := false
	for _, handler := range handlers {
		prevErr := ctx.Error
		execWithCtxRecovery(ctx, func() {
			switch h := handler.(type) {
			case Handler:
				h.Handle(ctx)
			case HandlerFunc:
				h(ctx)
			case func(*Context):
				h(ctx)
			}
		})
		if ctx.Error != prevErr {
			// the error handler itself failed; fall back to the default body
			handlerFailed = true
			break
		}
	}
	if !handlerFailed && len(handlers) != 0 && (ctx.HasResponseBody() || ctx.responseInhibited) {
		return
	}

	if ctx.Error != nil && r.Debug {
		ctx.HTML(renderDebugErrorPage(ctx))
		return
	}

	message := http.StatusText(status)
	var httpErr *Error
	if errors.As(ctx.Error, &httpErr) && httpErr.Message != "" {
		message = httpErr.Message
	}
	ctx.Text(message)
}
