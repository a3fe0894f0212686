package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/stockdeck/api/middleware"
	"github.com/angelmondragon/stockdeck/api/responses"
	"github.com/angelmondragon/stockdeck/internal/notifications"
	pkgerrors "github.com/angelmondragon/stockdeck/pkg/errors"
	"github.com/angelmondragon/stockdeck/pkg/logger"
)

type notificationDrainer interface {
	Drain(ctx context.Context, userID string) ([]notifications.Notification, error)
}

// DrainNotifications returns and clears the caller's pending notifications.
func DrainNotifications(svc notificationDrainer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notification service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		notes, err := svc.Drain(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drain notifications"))
			return
		}

		responses.WriteSuccess(w, map[string]any{"notifications": notes})
	}
}
