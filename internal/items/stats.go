package items

import "github.com/shopspring/decimal"

// Stats are the aggregate counters shown above the item grid. They always
// cover the whole unfiltered collection.
type Stats struct {
	TotalItems    int             `json:"total_items"`
	TotalQuantity int             `json:"total_quantity"`
	LowStock      int             `json:"low_stock"`
	OutOfStock    int             `json:"out_of_stock"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// ComputeStats refolds the collection from scratch. Recomputing in full on
// every change trades a little CPU for immunity to incremental drift, which
// is a fine trade at inventory sizes of hundreds to low thousands.
func ComputeStats(items []Item) Stats {
	stats := Stats{TotalValue: decimal.Zero}
	for _, it := range items {
		stats.TotalItems++
		stats.TotalQuantity += it.Quantity
		switch it.StockStatus() {
		case StockStatusLowStock:
			stats.LowStock++
		case StockStatusOutOfStock:
			stats.OutOfStock++
		}
		stats.TotalValue = stats.TotalValue.Add(it.TotalValue())
	}
	return stats
}
