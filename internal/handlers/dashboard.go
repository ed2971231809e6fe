package handlers

import (
	"net/http"
	"strconv"

	"github.com/nellusoru/backoffice/httpx"
	"github.com/nellusoru/backoffice/internal/services"
)

type DashboardHandler struct {
	Dashboard *services.DashboardService
}

func NewDashboardHandler(svc *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{Dashboard: svc}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Dashboard.Stats(r.Context())
	if err != nil {
		serverError(w, r, err, "dashboard stats")
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *DashboardHandler) RecentInvoices(w http.ResponseWriter, r *http.Request) {
	limit, ok := recentLimit(w, r)
	if !ok {
		return
	}
	rows, err := h.Dashboard.RecentInvoices(r.Context(), limit)
	if err != nil {
		serverError(w, r, err, "recent invoices")
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *DashboardHandler) RecentEnquiries(w http.ResponseWriter, r *http.Request) {
	limit, ok := recentLimit(w, r)
	if !ok {
		return
	}
	rows, err := h.Dashboard.RecentEnquiries(r.Context(), limit)
	if err != nil {
		serverError(w, r, err, "recent enquiries")
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

// recentLimit reads ?limit; the service clamps it.
func recentLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return services.DefaultRecentLimit, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_query", "limit must be a positive integer")
		return 0, false
	}
	return n, true
}
