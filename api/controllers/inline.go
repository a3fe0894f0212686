package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockdeck/api/middleware"
	"github.com/angelmondragon/stockdeck/api/responses"
	"github.com/angelmondragon/stockdeck/api/validators"
	"github.com/angelmondragon/stockdeck/internal/items"
	"github.com/angelmondragon/stockdeck/pkg/auth"
	pkgerrors "github.com/angelmondragon/stockdeck/pkg/errors"
	"github.com/angelmondragon/stockdeck/pkg/logger"
)

type inlineEditor interface {
	Start(ctx context.Context, isAdmin bool, itemID uuid.UUID, field items.EditField, initialValue string) error
	SetPending(value string)
	Active() *items.EditSession
	Cancel()
	Commit(ctx context.Context, value string) (*items.Item, error)
	CommitImage(ctx context.Context, upload items.ImageUpload) (*items.Item, error)
}

type inlineEditRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// InlineEditItem runs one inline edit through the editor state machine:
// start a session on the field, then commit the raw value.
func InlineEditItem(editor inlineEditor, notify notifier, logg *logger.Logger) http.HandlerFunc {
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

		var payload inlineEditRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		field := items.EditField(payload.Field)
		if field == items.EditFieldImage {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "image edits go through the image endpoint"))
			return
		}

		if err := editor.Start(r.Context(), isAdmin, id, field, payload.Value); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := editor.Commit(r.Context(), payload.Value)
		if err != nil {
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				notifyError(r.Context(), notify, userID, "Failed to update item")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notifySuccess(r.Context(), notify, userID, "Item updated successfully")
		responses.WriteSuccess(w, updated)
	}
}

// ActiveInlineEdit reports the in-flight edit session, if any.
func ActiveInlineEdit(editor inlineEditor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if editor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inline editor unavailable"))
			return
		}
		session := editor.Active()
		if session == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no inline edit in progress"))
			return
		}
		responses.WriteSuccess(w, session)
	}
}

type pendingValueRequest struct {
	Value string `json:"value" validate:"required"`
}

// UpdateInlineEditValue replaces the pending value of the in-flight session
// without committing it.
func UpdateInlineEditValue(editor inlineEditor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if editor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inline editor unavailable"))
			return
		}

		var payload pendingValueRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if editor.Active() == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no inline edit in progress"))
			return
		}
		editor.SetPending(payload.Value)
		responses.WriteSuccess(w, editor.Active())
	}
}

// CancelInlineEdit discards the in-flight session without mutating anything.
func CancelInlineEdit(editor inlineEditor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if editor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inline editor unavailable"))
			return
		}
		editor.Cancel()
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}
