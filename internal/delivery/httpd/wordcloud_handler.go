package httpd

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"antiplagiarism/internal/service"
	"antiplagiarism/pkg/utils"
)

func (h *Handler) GetSubmissionWordCloud(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "submissionId")

	if !utils.ValidateUUID(submissionID) {
		writeError(w, http.StatusNotFound, codeSubmissionNotFound, "submission not found")
		return
	}

	removeStopwords := false
	if v := r.URL.Query().Get("remove_stopwords"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			removeStopwords = b
		}
	}

	img, err := h.wordCloudService.RenderSubmissionWordCloudPNG(r.Context(), submissionID, service.WordCloudOptions{
		Width:           getIntQueryParam(r, "width", 0),
		Height:          getIntQueryParam(r, "height", 0),
		MaxWords:        getIntQueryParam(r, "max_words", 0),
		MinWordLength:   getIntQueryParam(r, "min_len", 0),
		RemoveStopwords: removeStopwords,
		Language:        r.URL.Query().Get("lang"),
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write wordcloud response")
	}
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}
