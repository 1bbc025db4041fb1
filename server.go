package aquilify

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Server runs a handler (typically a Router) with lifecycle hooks and
// graceful shutdown. Startup hooks run before the listener accepts
// connections; shutdown hooks run after in-flight requests have drained.
//
//	server := aquilify.NewServer(":8080", router)
//	server.OnStartup(openDatabase)
//	server.OnShutdown(closeDatabase)
//	if err := server.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
type Server struct {
	// Logger receives lifecycle events. Defaults to zap.NewNop().
	Logger *zap.Logger

	// ShutdownTimeout bounds how long Run waits for in-flight requests
	// when shutting down. Defaults to 10 seconds.
	ShutdownTimeout time.Duration

	addr    string
	handler http.Handler

	startupHooks  []func(ctx context.Context) error
	shutdownHooks []func(ctx context.Context) error
}

// NewServer creates a server for the given address and handler.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		Logger:          zap.NewNop(),
		ShutdownTimeout: 10 * time.Second,
		addr:            addr,
		handler:         handler,
	}
}

// OnStartup registers a hook that runs before the server starts accepting
// connections. Hooks run in registration order; if one fails the server
// does not start and Run returns the error.
func (s *Server) OnStartup(hook func(ctx context.Context) error) {
	s.startupHooks = append(s.startupHooks, hook)
}

// OnShutdown registers a hook that runs after the server has drained
// in-flight requests during shutdown. Hooks run in registration order.
func (s *Server) OnShutdown(hook func(ctx context.Context) error) {
	s.shutdownHooks = append(s.shutdownHooks, hook)
}

// Run starts the server and blocks until the given context is canceled, an
// interrupt or termination signal arrives, or the listener fails. On
// shutdown it stops accepting connections, waits up to ShutdownTimeout for
// in-flight requests, then runs the shutdown hooks.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, hook := range s.startupHooks {
		if err := hook(ctx); err != nil {
			return err
		}
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Handler: s.handler,
	}

	s.Logger.Info("server listening", zap.String("addr", listener.Addr().String()))

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := httpServer.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		s.Logger.Info("server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	})

	runErr := group.Wait()

	for _, hook := range s.shutdownHooks {
		if err := hook(context.Background()); err != nil && runErr == nil {
			runErr = err
		}
	}

	if runErr != nil {
		s.Logger.Error("server stopped with error", zap.Error(runErr))
	} else {
		s.Logger.Info("server stopped")
	}

	return runErr
}
