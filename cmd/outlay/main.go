package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"outlay/internal/config"
	apphttp "outlay/internal/http"
	"outlay/internal/storage"
)

const sessionSweepInterval = time.Hour

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Best effort; production deployments set real environment variables.
	if err := godotenv.Load(); err == nil {
		logger.Info("Loaded environment from .env file")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	repo, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", cfg.DatabasePath)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("Database ready", "path", cfg.DatabasePath, "read_only", cfg.ReadOnly)

	srv, err := apphttp.NewServer(cfg, repo)
	if err != nil {
		logger.Error("Failed to build server", "error", err)
		os.Exit(1)
	}

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting outlay server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Expired sessions are swept in the background so the table does not
	// grow without bound.
	g.Go(func() error {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				n, err := repo.DeleteExpiredSessions(ctx)
				if err != nil {
					logger.Error("Session sweep failed", "error", err)
					continue
				}
				if n > 0 {
					logger.Info("Swept expired sessions", "count", n)
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
