package httpd

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"antiplagiarism/internal/models"
	"antiplagiarism/internal/service"
	"antiplagiarism/internal/worker"
	"antiplagiarism/pkg/utils"
)

const (
	codeValidationError      = "VALIDATION_ERROR"
	codeWorkAlreadyExists    = "WORK_ALREADY_EXISTS"
	codeWorkNotFound         = "WORK_NOT_FOUND"
	codeSubmissionNotFound   = "SUBMISSION_NOT_FOUND"
	codeWordCloudUnavailable = "WORDCLOUD_UNAVAILABLE"
	codeInternalError        = "INTERNAL_ERROR"
)

// StatusReporter exposes the pipeline's processing counters.
type StatusReporter interface {
	GetStats() worker.PipelineStats
}

type Handler struct {
	workService       service.WorkService
	submissionService service.SubmissionService
	statsService      service.StatsService
	wordCloudService  service.WordCloudService
	pipeline          StatusReporter
	maxUploadBytes    int64
	logger            zerolog.Logger
}

func NewHandler(
	workService service.WorkService,
	submissionService service.SubmissionService,
	statsService service.StatsService,
	wordCloudService service.WordCloudService,
	pipeline StatusReporter,
	maxUploadBytes int64,
	logger zerolog.Logger,
) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &Handler{
		workService:       workService,
		submissionService: submissionService,
		statsService:      statsService,
		wordCloudService:  wordCloudService,
		pipeline:          pipeline,
		maxUploadBytes:    maxUploadBytes,
		logger:            logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/status", h.GetServiceStatus)

	router.Route("/api/v1", func(api chi.Router) {
		api.Route("/works", func(r chi.Router) {
			r.Post("/", h.CreateWork)
			r.Get("/{workId}", h.GetWork)
			r.Post("/{workId}/submissions", h.SubmitFile)
			r.Get("/{workId}/reports", h.ListWorkReports)
			r.Get("/{workId}/stats", h.GetWorkStats)
		})

		api.Get("/submissions/{submissionId}", h.GetSubmission)
		api.Get("/submissions/{submissionId}/wordcloud", h.GetSubmissionWordCloud)
	})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, codeValidationError, err.Error())
	case errors.Is(err, service.ErrWorkAlreadyExists):
		writeError(w, http.StatusConflict, codeWorkAlreadyExists, "work already exists")
	case errors.Is(err, service.ErrWorkNotFound):
		writeError(w, http.StatusNotFound, codeWorkNotFound, "work not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		writeError(w, http.StatusNotFound, codeSubmissionNotFound, "submission not found")
	case errors.Is(err, service.ErrWordCloudUnavailable):
		writeError(w, http.StatusBadGateway, codeWordCloudUnavailable, "wordcloud renderer unavailable")
	default:
		h.logger.Error().Err(err).Msg("Internal error")
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	_ = utils.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, models.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
