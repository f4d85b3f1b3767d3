package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type namedServer struct {
	name string
	srv  *http.Server
}

// servers lists the API server, which has write timeouts, and the stream server,
// which carries SSE and websocket traffic without one.
func (a *App) servers() []namedServer {
	return []namedServer{
		{name: "http", srv: a.httpServer},
		{name: "stream", srv: a.streamServer},
	}
}

// Start serves both listeners and returns a channel closed on SIGINT, SIGTERM or SIGHUP.
func (a *App) Start() <-chan struct{} {
	for _, s := range a.servers() {
		go func() {
			slog.Info(s.name+" server listening", "address", s.srv.Addr)
			if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				slog.Error("failed to listen and serve "+s.name+" server", "error", err)
				os.Exit(1)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		<-ctx.Done()
		slog.Info("shutdown signal received")
		close(done)
	}()

	return done
}

// ShutdownTimeout bounds Stop, read from app.server.shutdown_timeout_seconds.
func (a *App) ShutdownTimeout() time.Duration {
	if d := a.config.GetSecond("app.server.shutdown_timeout_seconds"); d > 0 {
		return d
	}
	return 10 * time.Second
}

// Stop drains HTTP, drops live sockets and streams, waits for MQ consumers and then
// releases resources in reverse order of creation.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	logClose := func(name string, err error) {
		if err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", name, "error", err)
		}
	}

	logClose("HTTP Server", a.httpServer.Shutdown(ctx))
	// Shutdown does not track hijacked websocket conns or long-lived SSE responses
	logClose("Realtime Server", a.wsServer.Close())
	logClose("Realtime Hub", a.hub.Close())
	logClose("Stream Server", a.streamServer.Shutdown(ctx))

	slog.InfoContext(ctx, "waiting for consumers and background jobs")
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "error from goroutines executions", "error", err)
	}

	for _, c := range a.closers {
		logClose(c.name, c.fn(ctx))
	}
	slog.InfoContext(ctx, "application stopped")
}
