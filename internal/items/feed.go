package items

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType tags a change feed event.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ChangeEvent is the wire envelope for the item change feed. Events carry the
// full current field values, not deltas, so whichever update reaches a cache
// last wins.
type ChangeEvent struct {
	Type EventType    `json:"event_type"`
	New  *ItemPayload `json:"new,omitempty"`
	Old  *ItemPayload `json:"old,omitempty"`
}

// ItemPayload is a partial item as carried on the feed. Absent fields take
// the documented defaults when materialized.
type ItemPayload struct {
	ID          *uuid.UUID       `json:"id,omitempty"`
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Quantity    *int             `json:"quantity,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty"`
	InsertedAt  *time.Time       `json:"inserted_at,omitempty"`
}

// PayloadFromItem captures the full field values of an item.
func PayloadFromItem(it Item) *ItemPayload {
	it = it.Clone()
	id := it.ID
	name := it.Name
	qty := it.Quantity
	at := it.InsertedAt
	return &ItemPayload{
		ID:          &id,
		Name:        &name,
		Description: it.Description,
		Quantity:    &qty,
		Price:       it.Price,
		ImageURL:    it.ImageURL,
		InsertedAt:  &at,
	}
}

// Materialize converts a payload into an Item, defaulting absent optional
// fields: quantity to 0, inserted_at to now, the rest stay unset.
func (p *ItemPayload) Materialize(now time.Time) Item {
	it := Item{InsertedAt: now}
	if p == nil {
		return it
	}
	if p.ID != nil {
		it.ID = *p.ID
	}
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Description != nil {
		v := *p.Description
		it.Description = &v
	}
	if p.Quantity != nil {
		it.Quantity = *p.Quantity
	}
	if p.Price != nil {
		v := *p.Price
		it.Price = &v
	}
	if p.ImageURL != nil {
		v := *p.ImageURL
		it.ImageURL = &v
	}
	if p.InsertedAt != nil {
		it.InsertedAt = *p.InsertedAt
	}
	return it
}

// TargetID returns the item id an event refers to, preferring the old row for
// deletes.
func (e ChangeEvent) TargetID() uuid.UUID {
	if e.Type == EventDelete {
		if e.Old != nil && e.Old.ID != nil {
			return *e.Old.ID
		}
		if e.New != nil && e.New.ID != nil {
			return *e.New.ID
		}
		return uuid.Nil
	}
	if e.New != nil && e.New.ID != nil {
		return *e.New.ID
	}
	return uuid.Nil
}

// Publisher pushes change events onto the feed.
type Publisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

// FeedPublisher publishes change events to the Pub/Sub item feed topic.
type FeedPublisher struct {
	publisher *pubsub.Publisher
}

// NewFeedPublisher wraps the topic publisher handle.
func NewFeedPublisher(publisher *pubsub.Publisher) (*FeedPublisher, error) {
	if publisher == nil {
		return nil, errors.New("feed topic publisher is required")
	}
	return &FeedPublisher{publisher: publisher}, nil
}

// Publish sends the event and waits for the broker acknowledgement.
func (f *FeedPublisher) Publish(ctx context.Context, event ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding change event: %w", err)
	}
	result := f.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"event_type": string(event.Type)},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing change event: %w", err)
	}
	return nil
}
