package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vidfriends/mediadeck/internal/config"
	"github.com/vidfriends/mediadeck/internal/handlers"
	"github.com/vidfriends/mediadeck/internal/httpserver"
	"github.com/vidfriends/mediadeck/internal/logging"
	"github.com/vidfriends/mediadeck/internal/middleware"
)

const usage = "expected command: serve, login, logout, whoami, list, search, recommend, lookup, tags, archive, or migrate"

// Run bootstraps mediadeck.
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdin, os.Stdout)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch args[0] {
	case "serve":
		return serve(ctx, cfg)
	case "migrate":
		return runMigrations(ctx, cfg, args[1:], stdout)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)
	ctx = logging.WithLogger(ctx, logger)

	deps, cleanup, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
		defer cancel()
		if err := cleanup(shutdownCtx); err != nil {
			logger.Warn("cleanup failed", "error", err)
		}
	}()

	if _, err := deps.session.Restore(ctx); err != nil {
		logger.Warn("restore session failed", "error", err)
	}

	return cmd(ctx, deps, commandIO{args: args[1:], in: stdin, out: stdout})
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	deps, cleanup, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
		defer cancel()
		if err := cleanup(shutdownCtx); err != nil {
			logger.Error("cleanup failed", "error", err)
		}
	}()

	restored, err := deps.session.Restore(ctx)
	if err != nil {
		logger.Warn("restore session failed", "error", err)
	}
	logger.Info("session ready", "restored", restored)
	deps.index.Warm()

	loginLimiter := middleware.NewIPRateLimiter(5, time.Minute, 5, 10*time.Minute)

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps.handlerDependencies(middleware.Limit(loginLimiter, "login")))

	handler := middleware.RequestLogger(logger)(mux)
	srv := httpserver.New(cfg.AppPort, handler, 0)

	l, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", srv.Addr(), err)
	}

	logger.Info("starting http server", "addr", l.Addr().String())
	return httpserver.Run(ctx, srv, l, logger)
}
