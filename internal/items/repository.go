package items

import (
	"context"
	"time"

	"github.com/angelmondragon/stockdeck/pkg/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists items through GORM.
type Repository struct {
	conn *gorm.DB
	now  func() time.Time
}

// NewRepository constructs a repository bound to the shared client.
func NewRepository(client *db.Client) *Repository {
	return &Repository{conn: client.DB(), now: time.Now}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{conn: tx, now: r.now}
}

// ListAll fetches every item ordered newest-first.
func (r *Repository) ListAll(ctx context.Context) ([]Item, error) {
	var rows []Item
	if err := r.conn.WithContext(ctx).
		Order("inserted_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID loads one item.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	var row Item
	if err := r.conn.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Insert creates the row, assigning id and inserted_at.
func (r *Repository) Insert(ctx context.Context, item *Item) (*Item, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.InsertedAt.IsZero() {
		item.InsertedAt = r.now().UTC()
	}
	if err := r.conn.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Update applies the given column values and refreshes inserted_at, which is
// the collection's last-touched ordering key. Returns the full updated row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*Item, error) {
	values := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		values[k] = v
	}
	values["inserted_at"] = r.now().UTC()

	result := r.conn.WithContext(ctx).
		Model(&Item{}).
		Where("id = ?", id).
		Updates(values)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes the row. Deleting an absent row is not an error.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.conn.WithContext(ctx).
		Where("id = ?", id).
		Delete(&Item{}).Error
}
