package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockdeck/api/responses"
	"github.com/angelmondragon/stockdeck/internal/items"
	pkgerrors "github.com/angelmondragon/stockdeck/pkg/errors"
	"github.com/angelmondragon/stockdeck/pkg/logger"
)

type collectionView interface {
	Items() []items.Item
	Len() int
}

type itemView struct {
	items.Item
	Status     items.StockStatus `json:"status"`
	TotalValue decimal.Decimal   `json:"total_value"`
}

type listItemsResponse struct {
	Items []itemView `json:"items"`
	Total int        `json:"total"`
}

// ListItems serves the filtered collection view. Filtering never reorders:
// items come back in the cache's newest-first order.
func ListItems(view collectionView, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if view == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item view unavailable"))
			return
		}

		filter, err := filterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		matched := filter.Apply(view.Items())
		payload := listItemsResponse{
			Items: make([]itemView, 0, len(matched)),
			Total: view.Len(),
		}
		for _, it := range matched {
			payload.Items = append(payload.Items, itemView{
				Item:       it,
				Status:     it.StockStatus(),
				TotalValue: it.TotalValue(),
			})
		}

		responses.WriteSuccess(w, payload)
	}
}

// ItemStats serves the aggregate counters. Stats always cover the whole
// collection regardless of any active filter.
func ItemStats(view collectionView, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if view == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item view unavailable"))
			return
		}
		responses.WriteSuccess(w, items.ComputeStats(view.Items()))
	}
}

// ExportItems streams the filtered view as a CSV download.
func ExportItems(view collectionView, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if view == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item view unavailable"))
			return
		}

		filter, err := filterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body := items.ExportCSV(filter.Apply(view.Items()))

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="inventory.csv"`)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(body)); err != nil {
			logg.Error(r.Context(), "failed to write csv export", err)
		}
	}
}

func filterFromQuery(r *http.Request) (items.Filter, error) {
	filter := items.Filter{Search: r.URL.Query().Get("search")}

	if raw := r.URL.Query().Get("stock_status"); raw != "" {
		status := items.StockStatus(raw)
		if !status.IsValid() {
			return items.Filter{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock_status")
		}
		filter.Status = status
	}

	from, err := parseDateParam(r.URL.Query().Get("date_from"), false)
	if err != nil {
		return items.Filter{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date_from")
	}
	filter.DateFrom = from

	to, err := parseDateParam(r.URL.Query().Get("date_to"), true)
	if err != nil {
		return items.Filter{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date_to")
	}
	filter.DateTo = to

	return filter, nil
}

// parseDateParam accepts RFC3339 or a bare date. Bare end dates are pushed to
// the end of that day so the range stays inclusive.
func parseDateParam(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
