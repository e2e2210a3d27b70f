package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"antiplagiarism/internal/models"
	"antiplagiarism/pkg/utils"
)

func (h *Handler) CreateWork(w http.ResponseWriter, r *http.Request) {
	var req models.CreateWorkRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, "invalid request body")
		return
	}

	work, err := h.workService.CreateWork(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, work)
}

func (h *Handler) GetWork(w http.ResponseWriter, r *http.Request) {
	workID := chi.URLParam(r, "workId")

	work, err := h.workService.GetWork(r.Context(), workID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, work)
}
