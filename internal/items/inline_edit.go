package items

import (
	"context"
	"strconv"
	"strings"
	"sync"

	pkgerrors "github.com/angelmondragon/stockdeck/pkg/errors"
	"github.com/angelmondragon/stockdeck/pkg/logger"
	"github.com/angelmondragon/stockdeck/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EditField names the single item field an inline edit touches.
type EditField string

const (
	EditFieldQuantity EditField = "quantity"
	EditFieldPrice    EditField = "price"
	EditFieldImage    EditField = "image"
)

func (f EditField) IsValid() bool {
	switch f {
	case EditFieldQuantity, EditFieldPrice, EditFieldImage:
		return true
	}
	return false
}

// EditSession is the one active inline edit. There is a single app-wide slot
// by design: editing a second field anywhere force-cancels the first,
// discarding its pending value.
type EditSession struct {
	ItemID       uuid.UUID `json:"item_id"`
	Field        EditField `json:"field"`
	PendingValue string    `json:"pending_value"`
}

type mutationGateway interface {
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Item, error)
	ReplaceImage(ctx context.Context, id uuid.UUID, upload ImageUpload) (*Item, error)
}

// Editor is the inline edit state machine: Idle, or Editing exactly one field
// of one item. Commits apply optimistically to the cache before the remote
// round-trip and restore the prior snapshot wholesale if it fails.
type Editor struct {
	mu      sync.Mutex
	session *EditSession

	cache     *Cache
	gateway   mutationGateway
	logg      *logger.Logger
	mutations *metrics.MutationMetrics
}

// NewEditor wires the inline edit controller.
func NewEditor(cache *Cache, gateway mutationGateway, logg *logger.Logger, mutations *metrics.MutationMetrics) (*Editor, error) {
	if cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "item cache required")
	}
	if gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "mutation gateway required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Editor{cache: cache, gateway: gateway, logg: logg, mutations: mutations}, nil
}

// Start opens an edit session on the given field. Only administrators may
// edit; any prior session is silently cancelled first.
func (e *Editor) Start(ctx context.Context, isAdmin bool, itemID uuid.UUID, field EditField, initialValue string) error {
	if !isAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins can edit items")
	}
	if !field.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown edit field")
	}
	if _, ok := e.cache.Get(itemID); !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		ctx = e.logg.WithItemID(ctx, e.session.ItemID.String())
		e.logg.Info(ctx, "abandoning in-progress inline edit")
	}
	e.session = &EditSession{ItemID: itemID, Field: field, PendingValue: initialValue}
	return nil
}

// SetPending updates the pending value of the active session, if any.
func (e *Editor) SetPending(value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		e.session.PendingValue = value
	}
}

// Active returns a copy of the current session, or nil when idle.
func (e *Editor) Active() *EditSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	copied := *e.session
	return &copied
}

// Cancel discards the active session without mutating anything.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = nil
}

// Commit parses and persists the pending numeric value. Invalid input aborts
// the edit with no mutation attempted. Valid input is applied to the cache
// before the remote call; a remote failure restores the prior snapshot.
func (e *Editor) Commit(ctx context.Context, value string) (*Item, error) {
	session := e.take()
	if session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no inline edit in progress")
	}
	if session.Field == EditFieldImage {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image edits require an upload")
	}

	current, ok := e.cache.Get(session.ItemID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}

	optimistic := current.Clone()
	var input UpdateInput
	switch session.Field {
	case EditFieldQuantity:
		qty, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || qty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a non-negative integer")
		}
		optimistic.Quantity = qty
		input.Quantity = &qty
	case EditFieldPrice:
		price, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil || price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be a non-negative number")
		}
		optimistic.Price = &price
		input.Price = &price
	}

	snapshot := e.cache.Snapshot()
	e.cache.ApplyLocalMutation(optimistic)

	updated, err := e.gateway.Update(ctx, session.ItemID, input)
	if err != nil {
		e.cache.Restore(snapshot)
		e.mutations.IncRollback()
		ctx = e.logg.WithItemID(ctx, session.ItemID.String())
		e.logg.Error(ctx, "inline edit failed, cache restored", err)
		return nil, err
	}
	return updated, nil
}

// CommitImage persists a pending image edit. The record mutation is gated on
// a successful upload; on failure the prior snapshot is restored.
func (e *Editor) CommitImage(ctx context.Context, upload ImageUpload) (*Item, error) {
	session := e.take()
	if session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no inline edit in progress")
	}
	if session.Field != EditFieldImage {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "active edit is not an image edit")
	}

	snapshot := e.cache.Snapshot()

	updated, err := e.gateway.ReplaceImage(ctx, session.ItemID, upload)
	if err != nil {
		e.cache.Restore(snapshot)
		e.mutations.IncRollback()
		ctx = e.logg.WithItemID(ctx, session.ItemID.String())
		e.logg.Error(ctx, "inline image edit failed, cache restored", err)
		return nil, err
	}
	return updated, nil
}

// take atomically clears and returns the active session. Commit and cancel
// both end the session regardless of outcome.
func (e *Editor) take() *EditSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	session := e.session
	e.session = nil
	return session
}
