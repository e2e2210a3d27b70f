package httpd

import (
	"net/http"
	"time"
)

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "anti-plagiarism-service",
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) GetServiceStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":   "anti-plagiarism-service",
		"timestamp": time.Now().UTC(),
		"pipeline":  h.pipeline.GetStats(),
	})
}
