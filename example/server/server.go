package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/embrake/aquilify"
	"github.com/embrake/aquilify/middleware/cors"
	"github.com/embrake/aquilify/middleware/gzip"
	"github.com/embrake/aquilify/middleware/requestid"
	"github.com/embrake/aquilify/middleware/requestlogger"
	"github.com/embrake/aquilify/sockets"
	"github.com/embrake/aquilify/sockets/middleware/json"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	router := aquilify.NewRouter()
	router.Use(requestid.Middleware())
	router.Use(requestlogger.Middleware(logger))
	router.Use(cors.Middleware())
	router.Use(gzip.Middleware())

	router.Get("/greet/:name", func(ctx *aquilify.Context) {
		ctx.Text("Hello, " + ctx.Param("name") + "!")
	})

	router.Post("/echo", func(ctx *aquilify.Context) {
		var body map[string]any
		if err := ctx.UnmarshalJSONBody(&body); err != nil {
			ctx.Error = aquilify.ErrBadRequest
			return
		}
		_ = ctx.JSON(body)
	})

	router.HandleError(404, func(ctx *aquilify.Context) {
		_ = ctx.JSON(map[string]string{"error": "no such route"})
	})

	socketRouter := sockets.NewRouter()
	socketRouter.Use(json.Middleware())

	socketRouter.UseOpen(func(ctx *sockets.Context) {
		ctx.SetOnSocket("connectedAt", time.Now())
	})

	socketRouter.Bind("/time/now", func(ctx *sockets.Context) {
		if err := ctx.Reply(map[string]any{
			"time": time.Now().Unix(),
		}); err != nil {
			fmt.Println("Error sending time:", err)
		}
	})

	socketRouter.UseClose(func(ctx *sockets.Context) {
		connectedAt := ctx.MustGetFromSocket("connectedAt").(time.Time)
		fmt.Println("Connection lasted", time.Since(connectedAt))
	})

	router.Use("/ws", socketRouter.Middleware())

	server := aquilify.NewServer(":8167", router)
	server.Logger = logger
	server.OnShutdown(func(ctx context.Context) error {
		logger.Info("server shutting down")
		return nil
	})

	if err := server.Run(context.Background()); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server exited", zap.Error(err))
	}
}
