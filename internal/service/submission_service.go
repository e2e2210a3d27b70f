package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"antiplagiarism/internal/models"
	"antiplagiarism/internal/repository"
	"antiplagiarism/internal/worker/queue"
	"antiplagiarism/pkg/utils"
)

// SubmissionService accepts submissions and answers polling queries.
// Acceptance is synchronous and fast: validate, persist PENDING, enqueue.
// The similarity result arrives later through the pipeline.
type SubmissionService interface {
	Submit(ctx context.Context, workID, filename string, content []byte) (models.Submission, error)
	GetSubmission(ctx context.Context, submissionID string) (models.SubmissionStatusResponse, error)
	ListReports(ctx context.Context, workID string) ([]models.Report, error)
}

type submissionService struct {
	works       repository.WorkRepository
	submissions repository.SubmissionRepository
	reports     repository.ReportRepository
	contents    repository.ContentStore
	publisher   queue.Publisher
	logger      zerolog.Logger
}

func NewSubmissionService(
	works repository.WorkRepository,
	submissions repository.SubmissionRepository,
	reports repository.ReportRepository,
	contents repository.ContentStore,
	publisher queue.Publisher,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		works:       works,
		submissions: submissions,
		reports:     reports,
		contents:    contents,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *submissionService) Submit(ctx context.Context, workID, filename string, content []byte) (models.Submission, error) {
	if strings.TrimSpace(filename) == "" {
		return models.Submission{}, fmt.Errorf("%w: filename is required", ErrValidation)
	}
	if len(content) == 0 {
		return models.Submission{}, fmt.Errorf("%w: file content is empty", ErrValidation)
	}

	if _, err := s.works.GetWork(ctx, workID); err != nil {
		if errors.Is(err, repository.ErrWorkNotFound) {
			return models.Submission{}, ErrWorkNotFound
		}
		return models.Submission{}, fmt.Errorf("failed to check work: %w", err)
	}

	submission := models.Submission{
		SubmissionID: utils.GenerateUUID(),
		WorkID:       workID,
		Filename:     filename,
		Status:       models.SubmissionStatusPending,
		CreatedAt:    time.Now().UTC(),
	}

	// content first so the record never exists without readable bytes
	if err := s.contents.PutContent(ctx, submission.SubmissionID, content); err != nil {
		return models.Submission{}, fmt.Errorf("failed to store submission content: %w", err)
	}

	if err := s.submissions.CreateSubmission(ctx, submission); err != nil {
		return models.Submission{}, fmt.Errorf("failed to create submission: %w", err)
	}

	if err := s.enqueue(ctx, submission); err != nil {
		return models.Submission{}, err
	}

	s.logger.Info().
		Str("submission_id", submission.SubmissionID).
		Str("work_id", workID).
		Str("filename", filename).
		Int("content_size", len(content)).
		Str("content_hash", utils.ContentHash(content)).
		Msg("Submission accepted")

	return submission, nil
}

func (s *submissionService) enqueue(ctx context.Context, submission models.Submission) error {
	event := models.SubmissionQueuedEvent{
		SubmissionID: submission.SubmissionID,
		WorkID:       submission.WorkID,
		Timestamp:    time.Now().Unix(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := s.publisher.Publish(ctx, body); err != nil {
		// the record already exists; close it out so it cannot hang in
		// PENDING forever
		s.finishRejected(ctx, submission, fmt.Sprintf("failed to enqueue: %v", err))
		return fmt.Errorf("failed to enqueue submission: %w", err)
	}
	return nil
}

func (s *submissionService) finishRejected(ctx context.Context, submission models.Submission, reason string) {
	if err := s.submissions.MarkProcessing(ctx, submission.SubmissionID); err != nil {
		s.logger.Error().Err(err).
			Str("submission_id", submission.SubmissionID).
			Msg("Failed to claim rejected submission")
		return
	}

	report := models.Report{
		SubmissionID:       submission.SubmissionID,
		WorkID:             submission.WorkID,
		Status:             models.ReportStatusError,
		MatchedSubmissions: []models.MatchedSubmission{},
		ErrorReason:        reason,
		CreatedAt:          time.Now().UTC(),
	}
	if err := s.reports.FinishSubmission(ctx, report); err != nil {
		s.logger.Error().Err(err).
			Str("submission_id", submission.SubmissionID).
			Msg("Failed to store rejection report")
	}
}

func (s *submissionService) GetSubmission(ctx context.Context, submissionID string) (models.SubmissionStatusResponse, error) {
	submission, err := s.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrSubmissionNotFound) {
			return models.SubmissionStatusResponse{}, ErrSubmissionNotFound
		}
		return models.SubmissionStatusResponse{}, fmt.Errorf("failed to get submission: %w", err)
	}

	response := models.SubmissionStatusResponse{
		SubmissionID: submission.SubmissionID,
		Status:       submission.Status,
	}

	// a terminal status guarantees the report exists: both are written in
	// one atomic transition
	if submission.Status.Terminal() {
		report, err := s.reports.GetReport(ctx, submissionID)
		if err != nil {
			return models.SubmissionStatusResponse{}, fmt.Errorf("failed to get report: %w", err)
		}
		response.Report = &report
	}

	return response, nil
}

func (s *submissionService) ListReports(ctx context.Context, workID string) ([]models.Report, error) {
	if _, err := s.works.GetWork(ctx, workID); err != nil {
		if errors.Is(err, repository.ErrWorkNotFound) {
			return nil, ErrWorkNotFound
		}
		return nil, fmt.Errorf("failed to check work: %w", err)
	}

	reports, err := s.reports.ListReports(ctx, workID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}
