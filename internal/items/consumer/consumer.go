package consumer

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/stockdeck/internal/items"
	"github.com/angelmondragon/stockdeck/pkg/logger"
	"github.com/angelmondragon/stockdeck/pkg/metrics"
)

type collection interface {
	ApplyRemoteChange(event items.ChangeEvent) bool
}

// Consumer applies item change feed events from Pub/Sub to the local
// collection cache. Every message is acked: the cache merge is idempotent, so
// a redelivered event simply gets dropped on the second pass, and a message
// that cannot be decoded will never decode on retry either.
type Consumer struct {
	cache        collection
	subscription *pubsub.Subscriber
	logg         *logger.Logger
	feed         *metrics.FeedMetrics
}

// NewConsumer constructs a consumer that watches the item feed subscription.
func NewConsumer(cache collection, subscription *pubsub.Subscriber, logg *logger.Logger, feed *metrics.FeedMetrics) (*Consumer, error) {
	if cache == nil {
		return nil, errors.New("item cache is required")
	}
	if subscription == nil {
		return nil, errors.New("item feed subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		cache:        cache,
		subscription: subscription,
		logg:         logg,
		feed:         feed,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		c.process(ctx, msg)
		msg.Ack()
	})
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) {
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": msg.Attributes["event_type"],
	}
	logCtx := c.logg.WithFields(ctx, fields)

	var event items.ChangeEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.feed.IncDecodeFailure()
		fields["payload_len"] = len(msg.Data)
		logCtx = c.logg.WithFields(ctx, fields)
		c.logg.Error(logCtx, "failed to decode change event", err)
		return
	}

	fields["item_id"] = event.TargetID().String()
	logCtx = c.logg.WithFields(ctx, fields)

	if !c.cache.ApplyRemoteChange(event) {
		c.feed.IncDropped()
		c.logg.Info(logCtx, "change event dropped")
		return
	}

	c.feed.IncApplied(string(event.Type))
	c.logg.Info(logCtx, "change event applied")
}
