// Package main is the entrypoint for the FlashDeck API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kiranshivaraju/flashdeck/internal/ai"
	"github.com/kiranshivaraju/flashdeck/internal/api"
	"github.com/kiranshivaraju/flashdeck/internal/api/handler"
	mw "github.com/kiranshivaraju/flashdeck/internal/api/middleware"
	"github.com/kiranshivaraju/flashdeck/internal/api/response"
	"github.com/kiranshivaraju/flashdeck/internal/auth"
	"github.com/kiranshivaraju/flashdeck/internal/cache"
	"github.com/kiranshivaraju/flashdeck/internal/config"
	"github.com/kiranshivaraju/flashdeck/internal/decks"
	"github.com/kiranshivaraju/flashdeck/internal/importer"
	"github.com/kiranshivaraju/flashdeck/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(newLogger(os.Stdout, cfg.Log))
	slog.Info("config loaded", "inference_mode", cfg.AI.Mode, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache. Optional; without it job mirroring and list caching are no-ops.
	var appCache cache.Cache = cache.NopCache{}
	var healthCache cache.Cache
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		defer redisCache.Close()

		if err := redisCache.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		slog.Info("redis connected")
		appCache = redisCache
		healthCache = redisCache
	} else {
		slog.Info("redis disabled, caching off")
	}

	// 5. Create inference backend
	generator, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return fmt.Errorf("create inference provider: %w", err)
	}
	slog.Info("inference provider initialized", "provider", generator.Name())

	// 6. Create services
	pgStore := store.NewPostgresStore(pool)
	authSvc := auth.NewService(pgStore, cfg.Auth)
	deckSvc := decks.NewService(pgStore, appCache)
	importSvc := importer.NewService(
		importer.NewRegistry(cfg.Import.Retention, time.Now),
		generator,
		appCache,
		importer.Options{
			MaxCards:  cfg.Import.MaxCards,
			Timeout:   cfg.AI.InferenceTimeout,
			Retention: cfg.Import.Retention,
		},
	)

	// 7. Build router with dependencies
	authHandlers := handler.NewAuthHandlers(authSvc, cfg.Auth.SecureCookie)
	deckHandlers := handler.NewDeckHandlers(deckSvc)

	deps := api.Dependencies{
		Auth: mw.NewAuth(authSvc),

		HealthHandler: healthHandler(pgStore, healthCache),

		RegisterHandler: authHandlers.Register,
		LoginHandler:    authHandlers.Login,
		LogoutHandler:   authHandlers.Logout,
		VerifyHandler:   authHandlers.Verify,

		StartImportHandler:  handler.NewStartImportHandler(importSvc),
		ImportStatusHandler: handler.NewImportStatusHandler(importSvc),

		ListDecks:  deckHandlers.List,
		CreateDeck: deckHandlers.Create,
		GetDeck:    deckHandlers.Get,
		UpdateDeck: deckHandlers.Update,
		DeleteDeck: deckHandlers.Delete,
		ReviewDeck: deckHandlers.Review,
		ListCards:  deckHandlers.ListCards,
		CreateCard: deckHandlers.CreateCard,
		GetCard:    deckHandlers.GetCard,
		UpdateCard: deckHandlers.UpdateCard,
		DeleteCard: deckHandlers.DeleteCard,
	}

	router := api.NewRouter(deps)

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Let in-flight imports finish within the remaining shutdown budget.
	if err := importSvc.Wait(shutdownCtx); err != nil {
		slog.Warn("import jobs still running at shutdown", "error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

type pinger interface {
	Ping(ctx context.Context) error
}

// healthHandler checks database and cache connectivity. A nil cache is
// reported as disabled and does not degrade the service.
func healthHandler(db pinger, c pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := db.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		switch {
		case c == nil:
			checks["cache"] = "disabled"
		case c.Ping(r.Context()) != nil:
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] == "degraded"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}

