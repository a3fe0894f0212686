package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/stockdeck/internal/items"
	"github.com/angelmondragon/stockdeck/internal/items/consumer"
	"github.com/angelmondragon/stockdeck/pkg/config"
	"github.com/angelmondragon/stockdeck/pkg/logger"
	"github.com/angelmondragon/stockdeck/pkg/metrics"
	"github.com/angelmondragon/stockdeck/pkg/pubsub"
)

// feed-worker runs the change feed consumer on its own, useful for draining a
// subscription without serving HTTP.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "feed-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "feed-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	cache := items.NewCache()
	feedConsumer, err := consumer.NewConsumer(cache, pubsubClient.ItemFeedSubscription(), logg, metrics.NewFeedMetrics(nil))
	requireResource(ctx, logg, "feed consumer", err)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{"env": cfg.App.Env})
	logg.Info(runCtx, "feed worker ready")

	if err := feedConsumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "feed worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
