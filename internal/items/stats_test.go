package items

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestComputeStatsOnEmptyCollection(t *testing.T) {
	t.Parallel()

	stats := ComputeStats(nil)
	if stats.TotalItems != 0 || stats.TotalQuantity != 0 {
		t.Fatalf("expected zero counts, got %+v", stats)
	}
	if !stats.TotalValue.Equal(decimal.Zero) {
		t.Fatalf("expected zero value, got %s", stats.TotalValue)
	}
}

func TestComputeStatsCountsAndValue(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	inStock := testItem("plenty", 20, base)
	price10 := decimal.NewFromInt(10)
	inStock.Price = &price10

	low := testItem("scarce", 4, base)
	price250 := decimal.NewFromFloat(2.50)
	low.Price = &price250

	out := testItem("gone", 0, base)
	out.Price = nil

	noPrice := testItem("unpriced", 7, base)
	noPrice.Price = nil

	stats := ComputeStats([]Item{inStock, low, out, noPrice})

	if stats.TotalItems != 4 {
		t.Fatalf("expected 4 items, got %d", stats.TotalItems)
	}
	if stats.TotalQuantity != 31 {
		t.Fatalf("expected quantity 31, got %d", stats.TotalQuantity)
	}
	if stats.LowStock != 2 {
		t.Fatalf("expected 2 low stock (scarce, unpriced), got %d", stats.LowStock)
	}
	if stats.OutOfStock != 1 {
		t.Fatalf("expected 1 out of stock, got %d", stats.OutOfStock)
	}

	// 20*10 + 4*2.50 + 0 + 0 (absent prices count as zero)
	want := decimal.NewFromInt(210)
	if !stats.TotalValue.Equal(want) {
		t.Fatalf("expected total value %s, got %s", want, stats.TotalValue)
	}
}

func TestComputeStatsThresholdBoundaries(t *testing.T) {
	t.Parallel()

	base := time.Now().UTC()
	atThreshold := testItem("at-threshold", 10, base)
	justBelow := testItem("just-below", 9, base)
	single := testItem("single", 1, base)

	stats := ComputeStats([]Item{atThreshold, justBelow, single})
	if stats.LowStock != 2 {
		t.Fatalf("expected 2 low stock at boundaries, got %d", stats.LowStock)
	}
	if stats.OutOfStock != 0 {
		t.Fatalf("expected no out of stock, got %d", stats.OutOfStock)
	}
}
