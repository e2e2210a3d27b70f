package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListWorkReports(w http.ResponseWriter, r *http.Request) {
	workID := chi.URLParam(r, "workId")

	reports, err := h.submissionService.ListReports(r.Context(), workID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reports)
}

func (h *Handler) GetWorkStats(w http.ResponseWriter, r *http.Request) {
	workID := chi.URLParam(r, "workId")

	stats, err := h.statsService.GetStats(r.Context(), workID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
