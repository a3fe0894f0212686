package items

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/stockdeck/pkg/errors"
	"github.com/angelmondragon/stockdeck/pkg/logger"
	"github.com/angelmondragon/stockdeck/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type itemRepository interface {
	ListAll(ctx context.Context) ([]Item, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	Insert(ctx context.Context, item *Item) (*Item, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*Item, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type objectStorage interface {
	Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, objectPath string) error
	ObjectPathFromPublicURL(raw string) string
}

// Gateway issues create/update/delete against the remote store and keeps the
// cache and the change feed in step with confirmed mutations. Every call is
// single-shot: a failure is surfaced to the caller, never retried here.
type Gateway struct {
	repo        itemRepository
	storage     objectStorage
	publisher   Publisher
	cache       *Cache
	logg        *logger.Logger
	mutations   *metrics.MutationMetrics
	imagePrefix string
	now         func() time.Time
}

// NewGateway wires the gateway. The publisher may be nil when no feed is
// configured (tests, single-instance dev).
func NewGateway(
	repo itemRepository,
	storage objectStorage,
	publisher Publisher,
	cache *Cache,
	logg *logger.Logger,
	mutations *metrics.MutationMetrics,
	imagePrefix string,
) (*Gateway, error) {
	if repo == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if storage == nil {
		return nil, fmt.Errorf("object storage required")
	}
	if cache == nil {
		return nil, fmt.Errorf("item cache required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if imagePrefix == "" {
		imagePrefix = "images"
	}
	return &Gateway{
		repo:        repo,
		storage:     storage,
		publisher:   publisher,
		cache:       cache,
		logg:        logg,
		mutations:   mutations,
		imagePrefix: strings.Trim(imagePrefix, "/"),
		now:         time.Now,
	}, nil
}

// ImageUpload carries one binary object to persist before the record write.
type ImageUpload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// CreateInput holds the validated payload for a new item.
type CreateInput struct {
	Name        string
	Description *string
	Quantity    int
	Price       *decimal.Decimal
	Image       *ImageUpload
}

// UpdateInput holds optional mutation values; nil fields are left untouched.
type UpdateInput struct {
	Name        *string
	Description *string
	Quantity    *int
	Price       *decimal.Decimal
	Image       *ImageUpload
}

// Load fetches the full collection from the store and installs it in the
// cache. Used on startup before serving views.
func (g *Gateway) Load(ctx context.Context) error {
	rows, err := g.repo.ListAll(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list items")
	}
	g.cache.ReplaceAll(rows)
	return nil
}

// Create persists a new item. An image, when present, is uploaded first; if
// the upload fails the record mutation is not attempted.
func (g *Gateway) Create(ctx context.Context, input CreateInput) (*Item, error) {
	if err := validateName(input.Name); err != nil {
		return nil, err
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}

	var imageURL *string
	var uploadedPath string
	if input.Image != nil {
		objectPath := g.imageObjectPath(input.Image.FileName)
		url, err := g.storage.Upload(ctx, objectPath, input.Image.ContentType, input.Image.Body)
		if err != nil {
			g.mutations.IncFailure("create")
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storage: upload image")
		}
		imageURL = &url
		uploadedPath = objectPath
	}

	item := &Item{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Quantity:    input.Quantity,
		Price:       input.Price,
		ImageURL:    imageURL,
	}

	created, err := g.repo.Insert(ctx, item)
	if err != nil {
		g.mutations.IncFailure("create")
		if uploadedPath != "" {
			g.cleanupObject(ctx, uploadedPath)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert item")
	}

	g.cache.ApplyLocalMutation(*created)
	g.publish(ctx, ChangeEvent{Type: EventInsert, New: PayloadFromItem(*created)})
	return created, nil
}

// Update applies partial scalar fields, and optionally replaces the image
// (upload first, old object cleaned up best-effort).
func (g *Gateway) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Item, error) {
	fields := map[string]any{}
	if input.Name != nil {
		if err := validateName(*input.Name); err != nil {
			return nil, err
		}
		fields["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.Quantity != nil {
		if err := validateQuantity(*input.Quantity); err != nil {
			return nil, err
		}
		fields["quantity"] = *input.Quantity
	}
	if input.Price != nil {
		if err := validatePrice(input.Price); err != nil {
			return nil, err
		}
		fields["price"] = *input.Price
	}

	existing, err := g.loadExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Image != nil {
		url, err := g.replaceImageObject(ctx, existing, input.Image)
		if err != nil {
			g.mutations.IncFailure("update")
			return nil, err
		}
		fields["image_url"] = url
	}

	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	updated, err := g.repo.Update(ctx, id, fields)
	if err != nil {
		g.mutations.IncFailure("update")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update item")
	}

	g.cache.ApplyLocalMutation(*updated)
	g.publish(ctx, ChangeEvent{
		Type: EventUpdate,
		New:  PayloadFromItem(*updated),
		Old:  PayloadFromItem(*existing),
	})
	return updated, nil
}

// ReplaceImage swaps only the item's image.
func (g *Gateway) ReplaceImage(ctx context.Context, id uuid.UUID, upload ImageUpload) (*Item, error) {
	return g.Update(ctx, id, UpdateInput{Image: &upload})
}

// Delete removes the item, dropping it from the cache optimistically and
// restoring the prior snapshot if the store rejects the delete.
func (g *Gateway) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := g.loadExisting(ctx, id)
	if err != nil {
		return err
	}

	snapshot := g.cache.Snapshot()
	g.cache.RemoveLocal(id)

	if err := g.repo.Delete(ctx, id); err != nil {
		g.cache.Restore(snapshot)
		g.mutations.IncFailure("delete")
		g.mutations.IncRollback()
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete item")
	}

	if existing.ImageURL != nil {
		if objectPath := g.storage.ObjectPathFromPublicURL(*existing.ImageURL); objectPath != "" {
			g.cleanupObject(ctx, objectPath)
		}
	}

	g.publish(ctx, ChangeEvent{Type: EventDelete, Old: PayloadFromItem(*existing)})
	return nil
}

func (g *Gateway) loadExisting(ctx context.Context, id uuid.UUID) (*Item, error) {
	existing, err := g.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load item")
	}
	return existing, nil
}

// replaceImageObject deletes the previous object best-effort, then uploads
// the replacement. An upload failure aborts before any record mutation; a
// failed cleanup of the old object is logged and swallowed so it cannot block
// the new image from taking effect.
func (g *Gateway) replaceImageObject(ctx context.Context, existing *Item, upload *ImageUpload) (string, error) {
	if existing.ImageURL != nil {
		if objectPath := g.storage.ObjectPathFromPublicURL(*existing.ImageURL); objectPath != "" {
			g.cleanupObject(ctx, objectPath)
		}
	}

	objectPath := g.imageObjectPath(upload.FileName)
	url, err := g.storage.Upload(ctx, objectPath, upload.ContentType, upload.Body)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storage: upload image")
	}
	return url, nil
}

func (g *Gateway) cleanupObject(ctx context.Context, objectPath string) {
	if err := g.storage.Delete(ctx, objectPath); err != nil {
		ctx = g.logg.WithField(ctx, "object_path", objectPath)
		g.logg.Warn(ctx, "failed to delete stored image")
	}
}

// publish is best-effort: the local cache already reflects the confirmed
// mutation, and other replicas reconcile on their next full load.
func (g *Gateway) publish(ctx context.Context, event ChangeEvent) {
	if g.publisher == nil {
		return
	}
	if err := g.publisher.Publish(ctx, event); err != nil {
		g.logg.Error(ctx, "failed to publish item change event", err)
	}
}

func (g *Gateway) imageObjectPath(fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("%s/%d-%s%s", g.imagePrefix, g.now().UnixNano(), uuid.NewString()[:8], ext)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}
	return nil
}

func validatePrice(price *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	return nil
}
