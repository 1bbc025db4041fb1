package aquilify

import (
	"context"
	"net/http"
	"sync"
)

// Context carries a single request through the handler chain. It wraps the
// request and response writer, exposes route parameters and per-request
// values, and buffers the response body until the chain has finished so
// middleware can post-process what handlers wrote.
//
// Contexts are pooled. They must not be retained or used after the handler
// chain returns.
type Context struct {
	parentContext *Context

	request        *http.Request
	responseWriter http.ResponseWriter

	method string
	path   string
	params RouteParams

	// Status is the response status code that will be written when the
	// chain completes. Zero means 200 once a body has been set.
	Status int

	// Error is set when a handler fails or panics. Once set, the remaining
	// handlers in the chain are skipped and the router's error handlers
	// take over.
	Error      error
	ErrorStack string

	currentHandlerNode        *HandlerNode
	currentHandlerNodeMatches bool
	currentHandlerIndex       int
	currentHandler            any

	matchedMethods map[Method]bool

	associatedValues map[string]any

	requestBody     []byte
	requestBodyRead bool

	responseBody      []byte
	responseInhibited bool
}

// NewContext creates a context for a request with an ad hoc chain of
// handlers. Most applications route requests through a Router instead; this
// is for frameworks driving the dispatch machinery directly.
func NewContext(res http.ResponseWriter, req *http.Request, handlers ...any) *Context {
	return NewContextWithNode(res, req, &HandlerNode{
		Method:   All,
		Handlers: handlers,
	})
}

// NewContextWithNode creates a context for a request with a prebuilt handler
// chain. This is used internally by the router.
func NewContextWithNode(res http.ResponseWriter, req *http.Request, firstHandlerNode *HandlerNode) *Context {
	ctx := contextFromPool()

	ctx.request = req
	ctx.responseWriter = res
	ctx.method = req.Method
	ctx.path = req.URL.Path

	ctx.currentHandlerNode = firstHandlerNode

	return ctx
}

// NewSubContextWithNode creates a context which runs a nested handler chain
// within an outer one. Mounted routers use this to dispatch into their own
// chains; state accumulated by the sub chain is copied back to the parent
// when the sub chain finishes.
func NewSubContextWithNode(ctx *Context, firstHandlerNode *HandlerNode) *Context {
	subCtx := contextFromPool()

	subCtx.parentContext = ctx

	subCtx.request = ctx.request
	subCtx.responseWriter = ctx.responseWriter
	subCtx.method = ctx.method
	subCtx.path = ctx.path
	for k, v := range ctx.params {
		subCtx.params[k] = v
	}

	subCtx.Status = ctx.Status
	subCtx.Error = ctx.Error
	subCtx.ErrorStack = ctx.ErrorStack

	subCtx.requestBody = ctx.requestBody
	subCtx.requestBodyRead = ctx.requestBodyRead
	subCtx.responseBody = ctx.responseBody
	subCtx.responseInhibited = ctx.responseInhibited

	for k, v := range ctx.matchedMethods {
		subCtx.matchedMethods[k] = v
	}
	for k, v := range ctx.associatedValues {
		subCtx.associatedValues[k] = v
	}

	subCtx.currentHandlerNode = firstHandlerNode

	return subCtx
}

var contextPool = sync.Pool{
	New: func() any {
		return &Context{
			params:           RouteParams{},
			matchedMethods:   map[Method]bool{},
			associatedValues: map[string]any{},
		}
	},
}

func contextFromPool() *Context {
	ctx := contextPool.Get().(*Context)

	ctx.parentContext = nil

	ctx.request = nil
	ctx.responseWriter = nil

	ctx.method = ""
	ctx.path = ""
	for k := range ctx.params {
		delete(ctx.params, k)
	}

	ctx.Status = 0
	ctx.Error = nil
	ctx.ErrorStack = ""

	ctx.currentHandlerNode = nil
	ctx.currentHandlerNodeMatches = false
	ctx.currentHandlerIndex = 0
	ctx.currentHandler = nil

	for k := range ctx.matchedMethods {
		delete(ctx.matchedMethods, k)
	}
	for k := range ctx.associatedValues {
		delete(ctx.associatedValues, k)
	}

	ctx.requestBody = nil
	ctx.requestBodyRead = false

	ctx.responseBody = nil
	ctx.responseInhibited = false

	return ctx
}

func (c *Context) free() {
	contextPool.Put(c)
}

func (c *Context) tryUpdateParent() {
	if c.parentContext == nil {
		return
	}

	c.parentContext.Status = c.Status
	c.parentContext.Error = c.Error
	c.parentContext.ErrorStack = c.ErrorStack

	c.parentContext.requestBody = c.requestBody
	c.parentContext.requestBodyRead = c.requestBodyRead
	c.parentContext.responseBody = c.responseBody
	c.parentContext.responseInhibited = c.responseInhibited

	for k, v := range c.matchedMethods {
		c.parentContext.matchedMethods[k] = v
	}
	for k, v := range c.associatedValues {
		c.parentContext.associatedValues[k] = v
	}
}

// Method returns the HTTP method of the request.
func (c *Context) Method() string {
	return c.method
}

// Path returns the path of the request.
func (c *Context) Path() string {
	return c.path
}

// Params returns the route parameters extracted from the request path by the
// pattern of the currently matched handler node.
func (c *Context) Params() RouteParams {
	return c.params
}

// Param returns a single route parameter by name. Returns an empty string if
// the parameter is not present.
func (c *Context) Param(name string) string {
	return c.params.Get(name)
}

// Context returns the request's context. It is canceled when the client
// disconnects or the request deadline expires.
func (c *Context) Context() context.Context {
	return c.request.Context()
}

// Set stores a value on the context for the duration of the request. Values
// are shared along the handler chain, including into and out of mounted
// routers.
func (c *Context) Set(key string, value any) {
	c.associatedValues[key] = value
}

// Get retrieves a value previously stored on the context with Set. The
// second return value reports whether the key exists.
func (c *Context) Get(key string) (any, bool) {
	value, ok := c.associatedValues[key]
	return value, ok
}

// MustGet is like Get but panics if the key is not present. Use it for
// values that middleware guarantees to have set.
func (c *Context) MustGet(key string) any {
	value, ok := c.associatedValues[key]
	if !ok {
		panic("no value set for key: " + key)
	}
	return value
}

func (c *Context) noteMatchedMethod(method Method) {
	c.matchedMethods[method] = true
}
