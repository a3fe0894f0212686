package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/stockdeck/api/controllers"
	"github.com/angelmondragon/stockdeck/api/middleware"
	"github.com/angelmondragon/stockdeck/internal/items"
	"github.com/angelmondragon/stockdeck/internal/notifications"
	"github.com/angelmondragon/stockdeck/pkg/auth"
	"github.com/angelmondragon/stockdeck/pkg/config"
	"github.com/angelmondragon/stockdeck/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	gcsP controllers.Pinger,
	pubsubP controllers.Pinger,
	cache *items.Cache,
	gateway *items.Gateway,
	editor *items.Editor,
	notificationsService *notifications.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Get("/health/ready", controllers.HealthReady(cfg, logg, dbP, redisP, gcsP, pubsubP))
	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	maxUploadBytes := int64(cfg.GCS.MaxUploadMB) << 20

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/items", func(r chi.Router) {
			r.Get("/", controllers.ListItems(cache, logg))
			r.Get("/stats", controllers.ItemStats(cache, logg))
			r.Get("/export", controllers.ExportItems(cache, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(auth.RoleAdmin), logg))
				r.Post("/", controllers.CreateItem(gateway, notificationsService, maxUploadBytes, logg))
				r.Patch("/{itemId}", controllers.UpdateItem(gateway, notificationsService, logg))
				r.Post("/{itemId}/inline", controllers.InlineEditItem(editor, notificationsService, logg))
				r.Get("/inline", controllers.ActiveInlineEdit(editor, logg))
				r.Put("/inline", controllers.UpdateInlineEditValue(editor, logg))
				r.Delete("/inline", controllers.CancelInlineEdit(editor, logg))
				r.Put("/{itemId}/image", controllers.ReplaceItemImage(editor, notificationsService, maxUploadBytes, logg))
				r.Delete("/{itemId}", controllers.DeleteItem(gateway, notificationsService, logg))
			})
		})

		r.Get("/notifications", controllers.DrainNotifications(notificationsService, logg))
	})

	return r
}
