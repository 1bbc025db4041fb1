package sockets

import "github.com/embrake/aquilify"

// BindType distinguishes message handler nodes from the connection
// lifecycle hook chains.
type BindType int

const (
	NormalBindType BindType = iota
	OpenBindType
	CloseBindType
)

// HandlerNode is a single link in a socket router's handler chain. Each
// node binds one or more handlers to a message path pattern. A nil Pattern
// matches any path.
type HandlerNode struct {
	BindType BindType
	Pattern  *aquilify.Pattern
	Handlers []any
	Next     *HandlerNode
}

func (n *HandlerNode) tryMatch(ctx *Context) bool {
	if n.Pattern == nil {
		return true
	}
	return n.Pattern.MatchInto(ctx.Path(), &ctx.params)
}
