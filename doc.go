// Package aquilify provides a lightweight, composable HTTP framework for Go.
//
// Aquilify routes requests with pattern-based matching, chains handlers and
// middleware through a single dispatch model, and pairs with the sockets
// subpackage for WebSocket support over the same router.
//
// # Quick Start
//
// Create a router, add middleware, and bind handlers to paths:
//
//	router := aquilify.NewRouter()
//	router.Use(requestlogger.Middleware(logger))
//
//	router.Get("/", func(ctx *aquilify.Context) {
//	    ctx.JSON(map[string]string{"message": "Welcome to Aquilify"})
//	})
//
//	http.ListenAndServe(":8080", router)
//
// # Routing
//
// Routes support exact paths, named parameters, and wildcards:
//
//	router.Get("/users/list", listUsers)     // Exact match
//	router.Get("/users/:id", getUser)        // Named parameter
//	router.Get("/files/**", serveFile)       // Wildcard
//
// Parameters may carry inline subpatterns and modifiers:
//
//	router.Get("/orders/:id(\\d+)", getOrder)
//	router.Get("/docs/:version?/index", docsIndex)
//
// # Middleware
//
// Middleware executes before handlers and can modify the context, perform
// authentication, or short-circuit the chain:
//
//	router.Use(func(ctx *aquilify.Context) {
//	    start := time.Now()
//	    ctx.Next()
//	    log.Printf("%s %s took %s", ctx.Method(), ctx.Path(), time.Since(start))
//	})
//
// Middleware can be scoped to a mount path, and routers can be mounted
// inside other routers for modular applications:
//
//	apiRouter := aquilify.NewRouter()
//	router.Use("/api/**", apiRouter)
//
// # Error Handling
//
// Handler panics and errors set on the context skip the remaining chain.
// Error handlers can be registered per status code, or as a catch-all:
//
//	router.HandleError(404, func(ctx *aquilify.Context) {
//	    ctx.Status = 404
//	    ctx.JSON(map[string]string{"error": "no such page"})
//	})
//
// Enabling Debug on the router swaps the default error body for an HTML
// diagnostic page with the stack trace and request details.
//
// # WebSockets
//
// The sockets subpackage routes WebSocket messages by path with the same
// middleware chaining model. A sockets.Router mounts as ordinary middleware:
//
//	socketRouter := sockets.NewRouter()
//	socketRouter.Bind("/chat/message", chatHandler)
//	router.Use(socketRouter.Middleware())
package aquilify
