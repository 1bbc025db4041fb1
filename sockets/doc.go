// Package sockets provides pattern-routed WebSocket messaging for Aquilify.
//
// A sockets.Router upgrades HTTP requests to WebSocket connections and
// routes each in-socket message by path, with the same composable
// middleware model as the HTTP router.
//
// # Quick Start
//
// Create a router, add envelope middleware, and bind handlers to message
// paths:
//
//	socketRouter := sockets.NewRouter()
//	socketRouter.Use(json.Middleware())
//
//	socketRouter.Bind("/chat/message", func(ctx *sockets.Context) {
//	    var msg ChatMessage
//	    ctx.Unmarshal(&msg)
//	    ctx.Reply(ChatResponse{Status: "received"})
//	})
//
//	http.ListenAndServe(":8080", socketRouter)
//
// A sockets router can also be mounted on an Aquilify HTTP router, in which
// case non-upgrade requests pass through to the rest of the chain:
//
//	router.Use(socketRouter.Middleware())
//
// # Message Format
//
// Message format is determined by middleware. The included JSON middleware
// expects messages with an ID (for request/reply) and path (for routing):
//
//	{
//	  "id": "abc123",
//	  "path": "/chat/message",
//	  "data": {"username": "alice", "text": "Hello!"}
//	}
//
// # Lifecycle Hooks
//
// UseOpen and UseClose register handlers that run when a connection is
// established and when it closes:
//
//	socketRouter.UseOpen(func(ctx *sockets.Context) {
//	    ctx.SetOnSocket("connectedAt", time.Now())
//	})
//
// # Context Storage
//
// Store values at the message level (per-message) or socket level
// (per-connection):
//
//	ctx.Set("requestTime", time.Now())       // Per-message
//	ctx.SetOnSocket("username", "alice")     // Per-connection
//
// # Clustering
//
// A Bridge tracks which node of a cluster holds each socket, letting any
// node send to or request from any connected socket. The natsbridge
// subpackage carries bridge traffic over NATS; localbridge wires multiple
// routers within one process.
package sockets
