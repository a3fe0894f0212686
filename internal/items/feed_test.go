package items

import (
	"testing"
	"time"
)

func TestMaterializeDefaultsAbsentFields(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	got := (*ItemPayload)(nil).Materialize(now)
	if got.Quantity != 0 {
		t.Fatalf("expected default quantity 0, got %d", got.Quantity)
	}
	if !got.InsertedAt.Equal(now) {
		t.Fatalf("expected inserted_at defaulted to now, got %s", got.InsertedAt)
	}
	if got.Price != nil || got.Description != nil || got.ImageURL != nil {
		t.Fatal("expected optional fields unset")
	}

	name := "Partial"
	partial := &ItemPayload{Name: &name}
	got = partial.Materialize(now)
	if got.Name != "Partial" || got.Quantity != 0 {
		t.Fatalf("unexpected materialized item: %+v", got)
	}
}

func TestPayloadFromItemDetachesPointers(t *testing.T) {
	t.Parallel()

	it := testItem("source", 5, time.Now().UTC())
	payload := PayloadFromItem(it)

	*payload.Quantity = 99
	if it.Quantity != 5 {
		t.Fatal("payload mutation leaked into source item")
	}
	*payload.Price = payload.Price.Neg()
	if it.Price.IsNegative() {
		t.Fatal("payload price mutation leaked into source item")
	}
}
