package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/partsdesk/internal/cache"
	"github.com/JonMunkholm/partsdesk/internal/config"
	"github.com/JonMunkholm/partsdesk/internal/core"
	_ "github.com/JonMunkholm/partsdesk/internal/core/schemas" // Register component schemas
	"github.com/JonMunkholm/partsdesk/internal/database"
	"github.com/JonMunkholm/partsdesk/internal/logging"
	"github.com/JonMunkholm/partsdesk/internal/web"
)

func main() {
	// Overload lets a local .env override the shell environment.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	if err := run(cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	statsCache, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if c, ok := statsCache.(io.Closer); ok {
		defer c.Close()
	}

	service := core.NewService(store, statsCache, core.ServiceOptions{
		MaxConcurrentImports: cfg.Import.MaxConcurrent,
		ImportWait:           cfg.Import.MaxWaitTime,
		MaxFileSize:          cfg.Import.MaxFileSize,
		PreviewTTL:           cfg.Import.PreviewTTL,
		StatsTTL:             cfg.Redis.StatsTTL,
	})

	if n, err := service.EnsureDefaultProjects(ctx); err != nil {
		return err
	} else if n > 0 {
		slog.Info("default projects created", "count", n)
	}
	slog.Info("import schemas registered", "count", core.SchemaCount())

	server := web.NewServer(service, cfg)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Scheduler.Enabled {
		g.Go(func() error {
			return core.RunScheduler(gctx, service.Jobs(core.SchedulerConfig{
				PurgePreviews: cfg.Scheduler.PurgePreviews,
				RefreshStats:  cfg.Scheduler.RefreshStats,
			}))
		})
	}

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if active := service.Limiter().ActiveCount(); active > 0 {
			slog.Info("waiting for imports to complete", "active", active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
