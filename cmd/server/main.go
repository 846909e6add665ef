package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mmynk/cobill/internal/auth"
	"github.com/mmynk/cobill/internal/config"
	"github.com/mmynk/cobill/internal/handler"
	"github.com/mmynk/cobill/internal/realtime"
	"github.com/mmynk/cobill/internal/service"
	"github.com/mmynk/cobill/internal/storage"
	"github.com/mmynk/cobill/internal/storage/postgres"
	"github.com/mmynk/cobill/internal/storage/sqlite"
	"github.com/mmynk/cobill/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logging is not configured yet.
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.DBDriver)

	hub := realtime.NewHub(realtime.HubConfig{
		QueueSize:       cfg.WSQueueSize,
		FramesPerSecond: cfg.WSFramesPerSecond,
		AllowedOrigins:  cfg.CORSOrigins,
	})
	defer hub.Close()

	var broadcaster realtime.Broadcaster = hub
	if cfg.RedisURL != "" {
		client, err := realtime.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()

		broadcaster = realtime.NewRedisBroadcaster(client, cfg.RedisChannel)
		relay := realtime.NewRelay(client, cfg.RedisChannel, hub)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Redis relay stopped", "error", err)
			}
		}()
		slog.Info("Redis relay enabled", "channel", cfg.RedisChannel)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	totals := service.NewTotalsService(store)
	h := handler.New(
		service.NewSessionService(store, broadcaster, totals,
			service.WithCodeLength(cfg.CodeLength),
			service.WithDefaultTip(cfg.DefaultTip),
		),
		service.NewParticipantService(store, broadcaster),
		service.NewItemService(store, broadcaster, totals),
		totals,
		service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store),
	)

	routerCfg := handler.RouterConfig{
		CORSOrigins: cfg.CORSOrigins,
		WebSocket:   hub.Handler(),
	}
	if cfg.StaticPath != "" {
		staticDir, err := filepath.Abs(cfg.StaticPath)
		if err != nil {
			return fmt.Errorf("failed to resolve static path: %w", err)
		}
		routerCfg.StaticPath = staticDir
		slog.Info("Serving static files", "path", staticDir)
	}
	e := handler.NewRouter(h, jwtManager, routerCfg)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", cfg.Addr)
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.DatabaseURL)
	default:
		return sqlite.New(cfg.DBPath)
	}
}
