package aquilify

import "net/http"

// CtxInhibitResponse marks the context's response as handled outside the
// buffered response machinery. This function is for frameworks that take
// over the underlying connection, such as WebSocket routers, and shouldn't
// be used in most cases.
func CtxInhibitResponse(ctx *Context) {
	ctx.InhibitResponse()
}

// CtxResponseWriter retrieves the raw http.ResponseWriter associated with
// the given Context. This function is for frameworks and shouldn't be used
// in most cases.
func CtxResponseWriter(ctx *Context) http.ResponseWriter {
	return ctx.responseWriter
}

// CtxSetRequest replaces the request associated with the given Context.
// This function is for middleware that needs to swap the request, such as
// attaching a derived context with a deadline, and shouldn't be used in most
// cases.
func CtxSetRequest(ctx *Context, req *http.Request) {
	ctx.request = req
}

// CtxFree releases the resources associated with the given Context. This
// function is for frameworks to be able to free Contexts they create and
// shouldn't be used in most cases.
func CtxFree(ctx *Context) {
	ctx.free()
}

// CtxAssociatedValues returns the value store of the given Context. This
// function is for frameworks and shouldn't be used in most cases.
func CtxAssociatedValues(ctx *Context) map[string]any {
	return ctx.associatedValues
}
