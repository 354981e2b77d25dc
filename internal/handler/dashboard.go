package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Sang14121315/DATN-LinhKien5AE-sub001/internal/report"
)

type DashboardHandler struct {
	reports *report.Service
}

func NewDashboardHandler(reports *report.Service) *DashboardHandler {
	return &DashboardHandler{reports: reports}
}

func (h *DashboardHandler) RegisterRoutes(router chi.Router) {
	router.Get("/dashboard/summary", h.Summary)
	router.Get("/dashboard/top-products", h.TopProducts)
	router.Get("/dashboard/revenue-series", h.RevenueSeries)
}

func parseWindow(r *http.Request) (from, to time.Time, err error) {
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return from, to, nil
}

func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid date window, expected RFC3339")
		return
	}

	summary, err := h.reports.Summary(r.Context(), from, to)
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute dashboard summary")
		respondWithError(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

func (h *DashboardHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid date window, expected RFC3339")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			respondWithError(w, http.StatusBadRequest, "invalid 'limit' value")
			return
		}
	}

	top, err := h.reports.TopProducts(r.Context(), limit, from, to)
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute top products")
		respondWithError(w, http.StatusInternalServerError, "failed to compute top products")
		return
	}

	respondWithJSON(w, http.StatusOK, top)
}

func (h *DashboardHandler) RevenueSeries(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid date window, expected RFC3339")
		return
	}

	bucket := report.Bucket(r.URL.Query().Get("bucket"))
	if bucket == "" {
		bucket = report.BucketDay
	}

	series, err := h.reports.RevenueSeries(r.Context(), bucket, from, to)
	if err != nil {
		switch bucket {
		case report.BucketDay, report.BucketMonth, report.BucketYear:
			log.Error().Err(err).Msg("Failed to compute revenue series")
			respondWithError(w, http.StatusInternalServerError, "failed to compute revenue series")
		default:
			respondWithError(w, http.StatusBadRequest, "invalid 'bucket', expected day, month or year")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, series)
}
