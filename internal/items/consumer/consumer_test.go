package consumer

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/stockdeck/internal/items"
	"github.com/angelmondragon/stockdeck/pkg/logger"
	"github.com/angelmondragon/stockdeck/pkg/metrics"
	"github.com/google/uuid"
)

type stubCollection struct {
	events  []items.ChangeEvent
	applied bool
}

func (s *stubCollection) ApplyRemoteChange(event items.ChangeEvent) bool {
	s.events = append(s.events, event)
	return s.applied
}

func newTestConsumer(cache *stubCollection) *Consumer {
	return &Consumer{
		cache: cache,
		logg:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		feed:  metrics.NewFeedMetrics(nil),
	}
}

func insertMessage(t *testing.T) *pubsub.Message {
	t.Helper()

	id := uuid.New()
	name := "Widget"
	qty := 3
	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	event := items.ChangeEvent{
		Type: items.EventInsert,
		New: &items.ItemPayload{
			ID:         &id,
			Name:       &name,
			Quantity:   &qty,
			InsertedAt: &at,
		},
	}
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to encode event: %v", err)
	}
	return &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"event_type": string(items.EventInsert)},
	}
}

func TestProcessAppliesDecodedEvent(t *testing.T) {
	t.Parallel()

	cache := &stubCollection{applied: true}
	c := newTestConsumer(cache)

	c.process(context.Background(), insertMessage(t))

	if len(cache.events) != 1 {
		t.Fatalf("expected one event applied, got %d", len(cache.events))
	}
	if cache.events[0].Type != items.EventInsert {
		t.Fatalf("unexpected event type %s", cache.events[0].Type)
	}
}

func TestProcessTracksDroppedDuplicates(t *testing.T) {
	t.Parallel()

	cache := &stubCollection{applied: false}
	c := newTestConsumer(cache)

	c.process(context.Background(), insertMessage(t))

	if len(cache.events) != 1 {
		t.Fatalf("expected drop to still reach the cache, got %d calls", len(cache.events))
	}
}

func TestProcessSkipsUndecodableMessages(t *testing.T) {
	t.Parallel()

	cache := &stubCollection{applied: true}
	c := newTestConsumer(cache)

	c.process(context.Background(), &pubsub.Message{Data: []byte("{not json")})

	if len(cache.events) != 0 {
		t.Fatal("expected no cache call for undecodable payload")
	}
}

func TestNewConsumerValidatesDependencies(t *testing.T) {
	t.Parallel()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	if _, err := NewConsumer(nil, &pubsub.Subscriber{}, logg, nil); err == nil {
		t.Fatal("expected error for missing cache")
	}
	if _, err := NewConsumer(&stubCollection{}, nil, logg, nil); err == nil {
		t.Fatal("expected error for missing subscription")
	}
	if _, err := NewConsumer(&stubCollection{}, &pubsub.Subscriber{}, nil, nil); err == nil {
		t.Fatal("expected error for missing logger")
	}
}
