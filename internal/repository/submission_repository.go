package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"

	"antiplagiarism/internal/models"
)

type submissionRepository struct {
	*PostgresRepository
}

func NewSubmissionRepository(db *sql.DB, logger zerolog.Logger) SubmissionRepository {
	return &submissionRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *submissionRepository) CreateSubmission(ctx context.Context, submission models.Submission) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO submissions (submission_id, work_id, filename, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		submission.SubmissionID,
		submission.WorkID,
		submission.Filename,
		submission.Status.String(),
		submission.CreatedAt,
	)
	return err
}

func (r *submissionRepository) GetSubmission(ctx context.Context, submissionID string) (models.Submission, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT submission_id, work_id, filename, status, created_at
		FROM submissions
		WHERE submission_id = $1
	`, submissionID)

	return scanSubmission(row)
}

func (r *submissionRepository) ListDoneSubmissions(ctx context.Context, workID string) ([]models.Submission, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT submission_id, work_id, filename, status, created_at
		FROM submissions
		WHERE work_id = $1 AND status = $2
		ORDER BY created_at ASC, submission_id ASC
	`, workID, models.SubmissionStatusDone.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submissions []models.Submission
	for rows.Next() {
		var submission models.Submission
		var status string
		if err := rows.Scan(
			&submission.SubmissionID,
			&submission.WorkID,
			&submission.Filename,
			&status,
			&submission.CreatedAt,
		); err != nil {
			return nil, err
		}
		submission.Status = models.SubmissionStatus(status)
		submissions = append(submissions, submission)
	}
	return submissions, rows.Err()
}

func (r *submissionRepository) CountSubmissions(ctx context.Context, workID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM submissions WHERE work_id = $1
	`, workID).Scan(&count)
	return count, err
}

func (r *submissionRepository) MarkProcessing(ctx context.Context, submissionID string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE submissions
		SET status = $2
		WHERE submission_id = $1 AND status = $3
	`,
		submissionID,
		models.SubmissionStatusProcessing.String(),
		models.SubmissionStatusPending.String(),
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (models.Submission, error) {
	var submission models.Submission
	var status string
	if err := row.Scan(
		&submission.SubmissionID,
		&submission.WorkID,
		&submission.Filename,
		&status,
		&submission.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}
	submission.Status = models.SubmissionStatus(status)
	return submission, nil
}
