package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/stockdeck/api/routes"
	"github.com/angelmondragon/stockdeck/internal/items"
	"github.com/angelmondragon/stockdeck/internal/items/consumer"
	"github.com/angelmondragon/stockdeck/internal/notifications"
	"github.com/angelmondragon/stockdeck/pkg/config"
	"github.com/angelmondragon/stockdeck/pkg/db"
	"github.com/angelmondragon/stockdeck/pkg/logger"
	"github.com/angelmondragon/stockdeck/pkg/metrics"
	"github.com/angelmondragon/stockdeck/pkg/migrate"
	"github.com/angelmondragon/stockdeck/pkg/pubsub"
	"github.com/angelmondragon/stockdeck/pkg/redis"
	"github.com/angelmondragon/stockdeck/pkg/storage/gcs"
)

const shutdownGrace = 15 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	requireResource(ctx, logg, "database", err)

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	requireResource(ctx, logg, "gcs", err)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)

	registry := prometheus.NewRegistry()
	feedMetrics := metrics.NewFeedMetrics(registry)
	mutationMetrics := metrics.NewMutationMetrics(registry)

	cache := items.NewCache()
	repo := items.NewRepository(dbClient)

	publisher, err := items.NewFeedPublisher(pubsubClient.ItemFeedPublisher())
	requireResource(ctx, logg, "feed publisher", err)

	gateway, err := items.NewGateway(repo, gcsClient, publisher, cache, logg, mutationMetrics, cfg.GCS.ImagePrefix)
	requireResource(ctx, logg, "item gateway", err)

	err = gateway.Load(ctx)
	requireResource(ctx, logg, "initial collection load", err)

	editor, err := items.NewEditor(cache, gateway, logg, mutationMetrics)
	requireResource(ctx, logg, "inline editor", err)

	notificationsService, err := notifications.NewService(redisClient.Raw(), cfg.Notifications, logg)
	requireResource(ctx, logg, "notification service", err)

	feedConsumer, err := consumer.NewConsumer(cache, pubsubClient.ItemFeedSubscription(), logg, feedMetrics)
	requireResource(ctx, logg, "feed consumer", err)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	go func() {
		if err := feedConsumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(runCtx, "feed consumer stopped unexpectedly", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	startCtx := logg.WithFields(runCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			gcsClient,
			pubsubClient,
			cache,
			gateway,
			editor,
			notificationsService,
			registry,
		),
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(startCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(startCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(startCtx, "server shutdown failed", err)
		}
	}

	closeErr := multierr.Combine(
		pubsubClient.Close(),
		redisClient.Close(),
		dbClient.Close(),
	)
	if closeErr != nil {
		logg.Error(startCtx, "error closing resources", closeErr)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
