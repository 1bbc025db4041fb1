package aquilify

// HandlerNode is a single link in a router's handler chain. Each node binds
// one or more handlers to an HTTP method and a path pattern. A nil Pattern
// matches any path, and the All method matches any request method.
type HandlerNode struct {
	Method   Method
	Pattern  *Pattern
	Handlers []any
	Next     *HandlerNode
}

// tryMatch reports whether this node applies to the request bound to the
// given context. When the pattern matches but the method does not, the
// method is recorded on the context so the router can produce a 405
// response with an accurate Allow header.
func (n *HandlerNode) tryMatch(ctx *Context) bool {
	if n.Pattern != nil && !n.Pattern.MatchInto(ctx.path, &ctx.params) {
		return false
	}
	if n.Method != All && string(n.Method) != ctx.method {
		if n.Pattern != nil && n.Method != "" {
			ctx.noteMatchedMethod(n.Method)
		}
		return false
	}
	return true
}

// Method is an HTTP request method accepted by a handler node.
type Method string

// Request methods a handler node can bind to. All matches any method.
const (
	All     Method = "ALL"
	Get     Method = "GET"
	Head    Method = "HEAD"
	Post    Method = "POST"
	Put     Method = "PUT"
	Patch   Method = "PATCH"
	Delete  Method = "DELETE"
	Options Method = "OPTIONS"
	Trace   Method = "TRACE"
)
