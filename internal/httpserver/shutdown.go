package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// ShutdownTimeout controls how long to wait for graceful shutdowns.
var ShutdownTimeout = 10 * time.Second

// Run serves on l until ctx is cancelled or the server fails, then shuts
// down gracefully within ShutdownTimeout.
func Run(ctx context.Context, srv *Server, l net.Listener, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Serve(l)
	}()

	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
