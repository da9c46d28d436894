// Command storefrontd runs the storefront sync engine as a daemon: it
// signs in with operator credentials, keeps a store's order book live
// over the realtime channel, and serves local status endpoints.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shopstream/storefront-sync/internal/config"
	"github.com/shopstream/storefront-sync/internal/domain"
	"github.com/shopstream/storefront-sync/internal/server"
	"github.com/shopstream/storefront-sync/internal/telemetry"
	"github.com/shopstream/storefront-sync/pkg/storefront"
)

func main() {
	configPath := flag.String("config", "", "path of an optional YAML config file")
	storeID := flag.String("store", "", "store whose order book to follow")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("storefront-sync", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *storeID == "" {
		*storeID = os.Getenv("STOREFRONT_STORE_ID")
	}
	if *storeID == "" {
		log.Fatal("no store id: pass -store or set STOREFRONT_STORE_ID")
	}

	client, err := storefront.New(cfg,
		storefront.WithLogger(logger),
		storefront.OnLogout(func() {
			logger.Error("session expired and refresh failed, sign in again")
		}),
		storefront.OnRealtimeUnavailable(func() {
			logger.Warn("realtime unavailable, order book frozen at last fetch")
		}),
	)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if email, password := os.Getenv("STOREFRONT_EMAIL"), os.Getenv("STOREFRONT_PASSWORD"); email != "" {
		if _, err := client.Login(ctx, email, password); err != nil {
			log.Fatalf("Failed to sign in: %v", err)
		}
		logger.Info("signed in", slog.String("email", email))
	}

	watch, err := client.WatchStoreOrders(ctx, *storeID, func(orders []domain.Order) {
		logger.Info("order book updated", slog.Int("orders", len(orders)))
	})
	if err != nil {
		log.Fatalf("Failed to watch store orders: %v", err)
	}
	defer watch.Close()

	srv := server.New(cfg.Server.Port, logger, func() server.Status {
		return server.Status{
			Environment:    cfg.Environment,
			Realtime:       watch.State().String(),
			LastEventAt:    watch.Channel().LastEventAt(),
			CachedEntities: client.Cache().Len(),
		}
	})
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("status server failed", slog.String("error", err.Error()))
		}
	}()

	logger.Info("storefront sync running",
		slog.String("store", *storeID),
		slog.String("api_url", cfg.APIURL),
		slog.Int("status_port", cfg.Server.Port),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received, stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("storefront sync stopped")
}
