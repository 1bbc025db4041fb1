package aquilify

import (
	"fmt"
	"reflect"
	"runtime/debug"
	"strings"
)

// Next continues execution to the next handler in the chain. Middleware
// should call Next() to pass control to subsequent handlers, then perform
// any post-processing after Next() returns.
//
// If an error is set on the context (via the Error field or a panic),
// subsequent handlers are skipped. Next() is safe to call multiple times.
func (c *Context) Next() {
	// In the case that this is a sub context, we need to update the parent
	// context with the current context's state.
	defer c.tryUpdateParent()

	if c.Error != nil {
		return
	}

	// Walk the chain looking for a handler node matching the request method
	// and path, or until we reach the end of the chain.
	for c.currentHandlerNode != nil {

		// Because handler nodes can hold multiple handler functions, a
		// matching node is pinned to the context so we continue from it
		// until all of its handlers have executed.
		//
		// If we do not have a matching handler node, we walk the chain
		// until we find one.
		if !c.currentHandlerNodeMatches {
			for c.currentHandlerNode != nil {
				if c.currentHandlerNode.tryMatch(c) {
					c.currentHandlerNodeMatches = true
					break
				}
				c.currentHandlerNode = c.currentHandlerNode.Next
			}
			if !c.currentHandlerNodeMatches {
				break
			}
		}

		// Grab a handler function from the matching handler node. If there
		// are more than one, we continue from the same node the next time
		// Next is called, until all of them have executed.
		if c.currentHandlerIndex < len(c.currentHandlerNode.Handlers) {
			c.currentHandler = c.currentHandlerNode.Handlers[c.currentHandlerIndex]
			c.currentHandlerIndex += 1
			break
		}

		// We only get here once a matching node has executed all of its
		// handlers. Clear it and continue to the next node.
		c.currentHandlerNode = c.currentHandlerNode.Next
		c.currentHandlerNodeMatches = false
		c.currentHandlerIndex = 0
		c.currentHandler = nil
	}

	// If we didn't find a handler function and we have reached the end of
	// the chain, we can return early.
	if c.currentHandler == nil {
		return
	}

	// Execute the handler function. Throw an error if it's not an expected
	// type.
	if currentHandler, ok := c.currentHandler.(Handler); ok {
		execWithCtxRecovery(c, func() {
			currentHandler.Handle(c)
		})
	} else if currentHandler, ok := c.currentHandler.(HandlerFunc); ok {
		execWithCtxRecovery(c, func() {
			currentHandler(c)
		})
	} else if currentHandler, ok := c.currentHandler.(func(*Context)); ok {
		execWithCtxRecovery(c, func() {
			currentHandler(c)
		})
	} else {
		panic(fmt.Sprintf("Unknown handler type: %s", reflect.TypeOf(c.currentHandler)))
	}

	// Prevent handlers from calling Next twice
	c.currentHandlerNode = nil
	c.currentHandlerNodeMatches = false
	c.currentHandlerIndex = 0
	c.currentHandler = nil
}

func execWithCtxRecovery(ctx *Context, fn func()) {
	defer func() {
		if maybeErr := recover(); maybeErr != nil {
			if err, ok := maybeErr.(error); ok {
				ctx.Error = err
			} else {
				ctx.Error = fmt.Errorf("%s", maybeErr)
			}

			stack := string(debug.Stack())
			stackLines := strings.Split(stack, "\n")
			ctx.ErrorStack = strings.Join(stackLines[6:], "\n")
		}
	}()
	fn()
}
