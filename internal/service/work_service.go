package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"antiplagiarism/internal/models"
	"antiplagiarism/internal/repository"
)

type WorkService interface {
	CreateWork(ctx context.Context, req *models.CreateWorkRequest) (models.Work, error)
	GetWork(ctx context.Context, workID string) (models.Work, error)
}

type workService struct {
	works    repository.WorkRepository
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewWorkService(works repository.WorkRepository, logger zerolog.Logger) WorkService {
	return &workService{
		works:    works,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

func (s *workService) CreateWork(ctx context.Context, req *models.CreateWorkRequest) (models.Work, error) {
	// whitespace-only fields are as blank as empty ones
	req.WorkID = strings.TrimSpace(req.WorkID)
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)

	if err := s.validate.Struct(req); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return models.Work{}, fmt.Errorf("%w: field %q is required", ErrValidation, strings.ToLower(fields[0].Field()))
		}
		return models.Work{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	work, err := s.works.CreateWork(ctx, req.WorkID, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, repository.ErrWorkAlreadyExists) {
			return models.Work{}, ErrWorkAlreadyExists
		}
		return models.Work{}, fmt.Errorf("failed to create work: %w", err)
	}

	s.logger.Info().
		Str("work_id", work.WorkID).
		Str("name", work.Name).
		Msg("Work created")

	return work, nil
}

func (s *workService) GetWork(ctx context.Context, workID string) (models.Work, error) {
	work, err := s.works.GetWork(ctx, workID)
	if err != nil {
		if errors.Is(err, repository.ErrWorkNotFound) {
			return models.Work{}, ErrWorkNotFound
		}
		return models.Work{}, fmt.Errorf("failed to get work: %w", err)
	}
	return work, nil
}
