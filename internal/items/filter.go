package items

import (
	"strings"
	"time"
)

// Filter is the current view predicate state. All clauses are ANDed.
type Filter struct {
	Search   string
	Status   StockStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// Apply returns the matching subsequence of items, preserving their order.
func (f Filter) Apply(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if f.Matches(it) {
			out = append(out, it)
		}
	}
	return out
}

// Matches reports whether a single item satisfies every clause.
func (f Filter) Matches(it Item) bool {
	return f.matchesSearch(it) && f.matchesStatus(it) && f.matchesDateRange(it)
}

// Case-insensitive substring match against name or description. An empty
// search matches everything.
func (f Filter) matchesSearch(it Item) bool {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	if search == "" {
		return true
	}
	if strings.Contains(strings.ToLower(it.Name), search) {
		return true
	}
	if it.Description != nil && strings.Contains(strings.ToLower(*it.Description), search) {
		return true
	}
	return false
}

func (f Filter) matchesStatus(it Item) bool {
	if f.Status == "" || f.Status == StockStatusAll {
		return true
	}
	return it.StockStatus() == f.Status
}

// Inclusive bounds; an absent DateFrom means the beginning of time, an absent
// DateTo means now.
func (f Filter) matchesDateRange(it Item) bool {
	if f.DateFrom != nil && it.InsertedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && it.InsertedAt.After(*f.DateTo) {
		return false
	}
	return true
}
