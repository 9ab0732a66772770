// internal/reporting/handler.go
package reporting

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"combatrix/internal/members"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the reporting and analytics endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/dashboard", h.handleDashboard)
	r.Get("/reports/monthly", h.handleMonthlySummary)
	r.Get("/reports/detailed", h.handleDetailedReport)
	r.Get("/reports/summary", h.handleSummaryStatistics)
	r.Get("/analytics/revenue", h.handleRevenueAnalysis)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.DashboardStats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromRequest(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	rows, err := h.service.MonthlySummary(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleDetailedReport(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromRequest(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	rows, err := h.service.DetailedMembershipReport(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleSummaryStatistics(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromRequest(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	summary, err := h.service.SummaryStatistics(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleRevenueAnalysis(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromRequest(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	analysis, err := h.service.RevenueAnalysis(r.Context(), filter.Start, filter.End)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func filterFromRequest(r *http.Request) (members.Filter, error) {
	q := r.URL.Query()
	return members.FilterFromQuery(q.Get("status"), q.Get("start_date"), q.Get("end_date"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, members.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, members.ErrNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
