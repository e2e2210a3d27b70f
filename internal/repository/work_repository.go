package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"

	"antiplagiarism/internal/models"
)

type workRepository struct {
	*PostgresRepository
}

func NewWorkRepository(db *sql.DB, logger zerolog.Logger) WorkRepository {
	return &workRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *workRepository) CreateWork(ctx context.Context, workID, name, description string) (models.Work, error) {
	// ON CONFLICT DO NOTHING keeps the existing row untouched; the missing
	// RETURNING row signals the duplicate.
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO works (work_id, name, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (work_id) DO NOTHING
		RETURNING work_id, name, description, created_at
	`, workID, name, description)

	var work models.Work
	if err := row.Scan(&work.WorkID, &work.Name, &work.Description, &work.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Work{}, ErrWorkAlreadyExists
		}
		return models.Work{}, err
	}
	return work, nil
}

func (r *workRepository) GetWork(ctx context.Context, workID string) (models.Work, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT work_id, name, description, created_at
		FROM works
		WHERE work_id = $1
	`, workID)

	var work models.Work
	if err := row.Scan(&work.WorkID, &work.Name, &work.Description, &work.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Work{}, ErrWorkNotFound
		}
		return models.Work{}, err
	}
	return work, nil
}
