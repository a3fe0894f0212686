package items

import (
	"testing"
	"time"
)

func filterFixture() []Item {
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	gadgetDesc := "A shiny gadget"
	widget := testItem("Widget", 25, base.Add(2*time.Hour))
	gadget := testItem("Gadget", 3, base.Add(time.Hour))
	gadget.Description = &gadgetDesc
	gone := testItem("Discontinued", 0, base)
	return []Item{widget, gadget, gone}
}

func TestFilterEmptyMatchesEverything(t *testing.T) {
	t.Parallel()

	all := filterFixture()
	got := Filter{}.Apply(all)
	if len(got) != len(all) {
		t.Fatalf("expected %d items, got %d", len(all), len(got))
	}
}

func TestFilterSearchMatchesNameOrDescription(t *testing.T) {
	t.Parallel()

	all := filterFixture()

	byName := Filter{Search: "wid"}.Apply(all)
	if len(byName) != 1 || byName[0].Name != "Widget" {
		t.Fatalf("expected Widget by name, got %+v", byName)
	}

	byDesc := Filter{Search: "SHINY"}.Apply(all)
	if len(byDesc) != 1 || byDesc[0].Name != "Gadget" {
		t.Fatalf("expected Gadget by description, got %+v", byDesc)
	}
}

func TestFilterStatusClauses(t *testing.T) {
	t.Parallel()

	all := filterFixture()

	cases := []struct {
		status StockStatus
		want   string
	}{
		{StockStatusInStock, "Widget"},
		{StockStatusLowStock, "Gadget"},
		{StockStatusOutOfStock, "Discontinued"},
	}
	for _, tc := range cases {
		got := Filter{Status: tc.status}.Apply(all)
		if len(got) != 1 || got[0].Name != tc.want {
			t.Fatalf("status %s: expected %s, got %+v", tc.status, tc.want, got)
		}
	}

	got := Filter{Status: StockStatusAll}.Apply(all)
	if len(got) != 3 {
		t.Fatalf("status all: expected 3, got %d", len(got))
	}
}

func TestFilterDateRangeIsInclusive(t *testing.T) {
	t.Parallel()

	all := filterFixture()
	exact := all[1].InsertedAt

	got := Filter{DateFrom: &exact, DateTo: &exact}.Apply(all)
	if len(got) != 1 || got[0].Name != "Gadget" {
		t.Fatalf("expected Gadget on exact bounds, got %+v", got)
	}
}

func TestFilterClausesAreANDed(t *testing.T) {
	t.Parallel()

	all := filterFixture()

	got := Filter{Search: "gadget", Status: StockStatusOutOfStock}.Apply(all)
	if len(got) != 0 {
		t.Fatalf("expected no match when clauses conflict, got %+v", got)
	}

	got = Filter{Search: "gadget", Status: StockStatusLowStock}.Apply(all)
	if len(got) != 1 {
		t.Fatalf("expected single match when all clauses hold, got %+v", got)
	}
}

func TestFilterPreservesCollectionOrder(t *testing.T) {
	t.Parallel()

	all := filterFixture()
	got := Filter{Status: StockStatusAll}.Apply(all)
	for i := range got {
		if got[i].ID != all[i].ID {
			t.Fatalf("order changed at index %d", i)
		}
	}
}

func TestFilterMatchesAgreesWithApply(t *testing.T) {
	t.Parallel()

	all := filterFixture()
	f := Filter{Search: "d", Status: StockStatusOutOfStock}
	matched := f.Apply(all)

	count := 0
	for _, it := range all {
		if f.Matches(it) {
			count++
		}
	}
	if count != len(matched) {
		t.Fatalf("Matches count %d disagrees with Apply %d", count, len(matched))
	}
}
