package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/stockdeck/api/responses"
	"github.com/angelmondragon/stockdeck/pkg/config"
	"github.com/angelmondragon/stockdeck/pkg/logger"
)

// Pinger is the health check surface every downstream client exposes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthLive reports process liveness.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StockDeck-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness of every downstream dependency.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP, gcsP, pubsubP Pinger) http.HandlerFunc {
	deps := []struct {
		name string
		ping Pinger
	}{
		{"db", dbP},
		{"redis", redisP},
		{"gcs", gcsP},
		{"pubsub", pubsubP},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StockDeck-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true
		for _, dep := range deps {
			if dep.ping == nil {
				checks[dep.name] = "not configured"
				continue
			}
			if err := dep.ping.Ping(r.Context()); err != nil {
				checks[dep.name] = "unavailable"
				healthy = false
				ctx := logg.WithField(r.Context(), "dependency", dep.name)
				logg.Error(ctx, "readiness check failed", err)
				continue
			}
			checks[dep.name] = "ok"
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, status, map[string]any{"status": checks})
	}
}
