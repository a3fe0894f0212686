package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockdeck/api/middleware"
	"github.com/angelmondragon/stockdeck/api/responses"
	"github.com/angelmondragon/stockdeck/api/validators"
	"github.com/angelmondragon/stockdeck/internal/items"
	"github.com/angelmondragon/stockdeck/pkg/auth"
	pkgerrors "github.com/angelmondragon/stockdeck/pkg/errors"
	"github.com/angelmondragon/stockdeck/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type itemGateway interface {
	Create(ctx context.Context, input items.CreateInput) (*items.Item, error)
	Update(ctx context.Context, id uuid.UUID, input items.UpdateInput) (*items.Item, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type notifier interface {
	Success(ctx context.Context, userID, message string)
	Error(ctx context.Context, userID, message string)
}

// CreateItem handles multipart item creation with an optional image file.
func CreateItem(gw itemGateway, notify notifier, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gw == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item gateway unavailable"))
			return
		}
		userID := middleware.UserIDFromContext(r.Context())

		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		input := items.CreateInput{Name: r.FormValue("name")}
		if desc := r.FormValue("description"); desc != "" {
			input.Description = &desc
		}
		if raw := r.FormValue("quantity"); raw != "" {
			qty, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be an integer"))
				return
			}
			input.Quantity = qty
		}
		if raw := r.FormValue("price"); raw != "" {
			price, err := decimal.NewFromString(strings.TrimSpace(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price must be a number"))
				return
			}
			input.Price = &price
		}

		if file, header, err := r.FormFile("image"); err == nil {
			defer file.Close()
			input.Image = &items.ImageUpload{
				FileName:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Body:        file,
			}
		}

		created, err := gw.Create(r.Context(), input)
		if err != nil {
			notifyError(r.Context(), notify, userID, "Failed to add item")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notifySuccess(r.Context(), notify, userID, "Item added successfully")
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

type updateItemRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=1"`
	Description *string          `json:"description,omitempty"`
	Quantity    *int             `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Price       *decimal.Decimal `json:"price,omitempty"`
}

// UpdateItem applies a partial scalar update.
func UpdateItem(gw itemGateway, notify notifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gw == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item gateway unavailable"))
			return
		}
		userID := middleware.UserIDFromContext(r.Context())

		id, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := gw.Update(r.Context(), id, items.UpdateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Quantity:    payload.Quantity,
			Price:       payload.Price,
		})
		if err != nil {
			notifyError(r.Context(), notify, userID, "Failed to update item")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notifySuccess(r.Context(), notify, userID, "Item updated successfully")
		responses.WriteSuccess(w, updated)
	}
}

// ReplaceItemImage swaps the item's image for the uploaded file. The swap runs
// as an inline edit session so image edits share the single-slot discipline
// and snapshot rollback with quantity and price edits.
func ReplaceItemImage(editor inlineEditor, notify notifier, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if editor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inline editor unavailable"))
			return
		}
		userID := middleware.UserIDFromContext(r.Context())
		isAdmin := middleware.RoleFromContext(r.Context()) == string(auth.RoleAdmin)

		id, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "image file is required"))
			return
		}
		defer file.Close()

		if err := editor.Start(r.Context(), isAdmin, id, items.EditFieldImage, header.Filename); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := editor.CommitImage(r.Context(), items.ImageUpload{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		})
		if err != nil {
			notifyError(r.Context(), notify, userID, "Failed to update item image")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notifySuccess(r.Context(), notify, userID, "Item image updated")
		responses.WriteSuccess(w, updated)
	}
}

// DeleteItem removes an item and its stored image.
func DeleteItem(gw itemGateway, notify notifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gw == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item gateway unavailable"))
			return
		}
		userID := middleware.UserIDFromContext(r.Context())

		id, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := gw.Delete(r.Context(), id); err != nil {
			notifyError(r.Context(), notify, userID, "Failed to delete item")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notifySuccess(r.Context(), notify, userID, "Item deleted successfully")
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func itemIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
	}
	return id, nil
}

func notifySuccess(ctx context.Context, notify notifier, userID, message string) {
	if notify != nil && userID != "" {
		notify.Success(ctx, userID, message)
	}
}

func notifyError(ctx context.Context, notify notifier, userID, message string) {
	if notify != nil && userID != "" {
		notify.Error(ctx, userID, message)
	}
}
