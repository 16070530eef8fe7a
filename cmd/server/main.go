// Package main is the entry point for the CRM server. It loads
// configuration, connects the session store and (when selected) the
// MariaDB registry, wires the plugins, and serves HTTP until signalled.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ventacrm/crm/internal/app"
	"github.com/ventacrm/crm/internal/config"
	"github.com/ventacrm/crm/internal/database"
)

// shutdownGrace is how long in-flight requests get to finish.
const shutdownGrace = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	setupLogging(cfg)

	if err := run(cfg); err != nil {
		slog.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting CRM",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
		slog.String("registry", cfg.Auth.RegistryDriver),
	)

	// --- MariaDB (registry + audit) ---
	var db *sql.DB
	if cfg.Auth.RegistryDriver == config.RegistryMariaDB {
		var err error
		db, err = database.NewMariaDB(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		slog.Info("connected to MariaDB")

		if _, err := database.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
			return err
		}
	}

	// --- Redis (sessions) ---
	rdb, err := database.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()
	slog.Info("connected to Redis")

	application, err := app.New(cfg, db, rdb)
	if err != nil {
		return err
	}

	// The memory registry starts empty on every boot, so it is always seeded.
	if cfg.Auth.SeedDefaultUsers || cfg.Auth.RegistryDriver == config.RegistryMemory {
		if err := application.Seed(ctx); err != nil {
			return err
		}
		slog.Info("default principals seeded")
	}

	application.RegisterRoutes()

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return application.Shutdown(shutdownCtx)
}

// setupLogging installs the default slog logger. Development logs text for
// reading in a terminal; everything else logs JSON for aggregation.
func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
