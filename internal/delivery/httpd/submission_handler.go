package httpd

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"antiplagiarism/internal/models"
	"antiplagiarism/pkg/utils"
)

func (h *Handler) SubmitFile(w http.ResponseWriter, r *http.Request) {
	workID := chi.URLParam(r, "workId")

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, "failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, "file field is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "failed to read file")
		return
	}

	submission, err := h.submissionService.Submit(r.Context(), workID, header.Filename, content)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	// accepted, not yet processed: the report arrives through polling
	writeJSON(w, http.StatusAccepted, models.SubmissionAcceptedResponse{
		SubmissionID: submission.SubmissionID,
	})
}

func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "submissionId")

	// submission ids are server-generated UUIDs, anything else cannot exist
	if !utils.ValidateUUID(submissionID) {
		writeError(w, http.StatusNotFound, codeSubmissionNotFound, "submission not found")
		return
	}

	response, err := h.submissionService.GetSubmission(r.Context(), submissionID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}
