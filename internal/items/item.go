package items

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is one inventory record. inserted_at doubles as the last-touched
// ordering key: every update refreshes it, so the collection stays sorted by
// recency of change.
type Item struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string           `gorm:"not null" json:"name"`
	Description *string          `json:"description,omitempty"`
	Quantity    int              `gorm:"not null;default:0" json:"quantity"`
	Price       *decimal.Decimal `gorm:"type:numeric(12,2)" json:"price,omitempty"`
	ImageURL    *string          `gorm:"column:image_url" json:"image_url,omitempty"`
	InsertedAt  time.Time        `gorm:"column:inserted_at;not null" json:"inserted_at"`
}

func (Item) TableName() string {
	return "items"
}

// Clone returns a value copy with no shared pointers, so snapshots cannot be
// mutated through the original.
func (it Item) Clone() Item {
	out := it
	if it.Description != nil {
		v := *it.Description
		out.Description = &v
	}
	if it.Price != nil {
		v := *it.Price
		out.Price = &v
	}
	if it.ImageURL != nil {
		v := *it.ImageURL
		out.ImageURL = &v
	}
	return out
}

// StockStatus classifies an item by quantity. The thresholds are a fixed
// business rule.
type StockStatus string

const (
	StockStatusAll        StockStatus = "all"
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

const lowStockThreshold = 10

func (s StockStatus) IsValid() bool {
	switch s {
	case StockStatusAll, StockStatusInStock, StockStatusLowStock, StockStatusOutOfStock:
		return true
	}
	return false
}

// StockStatus derives the classification from the quantity.
func (it Item) StockStatus() StockStatus {
	switch {
	case it.Quantity == 0:
		return StockStatusOutOfStock
	case it.Quantity < lowStockThreshold:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// StockStatusLabel is the human-readable form used in exports.
func (it Item) StockStatusLabel() string {
	switch it.StockStatus() {
	case StockStatusOutOfStock:
		return "Out of Stock"
	case StockStatusLowStock:
		return "Low Stock"
	default:
		return "In Stock"
	}
}

// TotalValue is quantity times price, treating an absent price as zero.
func (it Item) TotalValue() decimal.Decimal {
	if it.Price == nil {
		return decimal.Zero
	}
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}
