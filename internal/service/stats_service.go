package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"antiplagiarism/internal/models"
	"antiplagiarism/internal/repository"
)

// StatsService aggregates per-work statistics on demand: every submission
// counts toward the total regardless of state, while the average covers
// DONE reports only.
type StatsService interface {
	GetStats(ctx context.Context, workID string) (models.WorkStats, error)
}

type statsService struct {
	works       repository.WorkRepository
	submissions repository.SubmissionRepository
	reports     repository.ReportRepository
	logger      zerolog.Logger
}

func NewStatsService(
	works repository.WorkRepository,
	submissions repository.SubmissionRepository,
	reports repository.ReportRepository,
	logger zerolog.Logger,
) StatsService {
	return &statsService{
		works:       works,
		submissions: submissions,
		reports:     reports,
		logger:      logger,
	}
}

func (s *statsService) GetStats(ctx context.Context, workID string) (models.WorkStats, error) {
	if _, err := s.works.GetWork(ctx, workID); err != nil {
		if errors.Is(err, repository.ErrWorkNotFound) {
			return models.WorkStats{}, ErrWorkNotFound
		}
		return models.WorkStats{}, fmt.Errorf("failed to check work: %w", err)
	}

	total, err := s.submissions.CountSubmissions(ctx, workID)
	if err != nil {
		return models.WorkStats{}, fmt.Errorf("failed to count submissions: %w", err)
	}

	average, err := s.reports.AverageSimilarity(ctx, workID)
	if err != nil {
		return models.WorkStats{}, fmt.Errorf("failed to compute average similarity: %w", err)
	}

	return models.WorkStats{
		WorkID:                   workID,
		TotalSubmissions:         total,
		AverageSimilarityPercent: average,
	}, nil
}
