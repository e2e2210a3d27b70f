package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"antiplagiarism/internal/models"
)

type reportRepository struct {
	*PostgresRepository
}

func NewReportRepository(db *sql.DB, logger zerolog.Logger) ReportRepository {
	return &reportRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *reportRepository) FinishSubmission(ctx context.Context, report models.Report) error {
	matched, err := json.Marshal(report.MatchedSubmissions)
	if err != nil {
		return fmt.Errorf("failed to marshal matched submissions: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The status guard keeps the transition monotonic: only a PROCESSING
	// submission can be finished, so the report is written exactly once.
	result, err := tx.ExecContext(ctx, `
		UPDATE submissions
		SET status = $2
		WHERE submission_id = $1 AND status = $3
	`,
		report.SubmissionID,
		string(report.Status),
		models.SubmissionStatusProcessing.String(),
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrReportExists
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (submission_id, work_id, status, similarity_percent, matched_submissions, error_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		report.SubmissionID,
		report.WorkID,
		report.Status.String(),
		report.SimilarityPercent,
		matched,
		report.ErrorReason,
		report.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *reportRepository) GetReport(ctx context.Context, submissionID string) (models.Report, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT submission_id, work_id, status, similarity_percent, matched_submissions, error_reason, created_at
		FROM reports
		WHERE submission_id = $1
	`, submissionID)

	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Report{}, ErrReportNotFound
		}
		return models.Report{}, err
	}
	return report, nil
}

func (r *reportRepository) ListReports(ctx context.Context, workID string) ([]models.Report, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT submission_id, work_id, status, similarity_percent, matched_submissions, error_reason, created_at
		FROM reports
		WHERE work_id = $1
		ORDER BY created_at ASC, submission_id ASC
	`, workID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func (r *reportRepository) AverageSimilarity(ctx context.Context, workID string) (float64, error) {
	var avg float64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(similarity_percent), 0)
		FROM reports
		WHERE work_id = $1 AND status = $2
	`, workID, models.ReportStatusDone.String()).Scan(&avg)
	return avg, err
}

func scanReport(row rowScanner) (models.Report, error) {
	var report models.Report
	var status string
	var matched []byte
	if err := row.Scan(
		&report.SubmissionID,
		&report.WorkID,
		&status,
		&report.SimilarityPercent,
		&matched,
		&report.ErrorReason,
		&report.CreatedAt,
	); err != nil {
		return models.Report{}, err
	}
	report.Status = models.ReportStatus(status)

	if len(matched) > 0 {
		if err := json.Unmarshal(matched, &report.MatchedSubmissions); err != nil {
			return models.Report{}, fmt.Errorf("failed to unmarshal matched submissions: %w", err)
		}
	}
	if report.MatchedSubmissions == nil {
		report.MatchedSubmissions = []models.MatchedSubmission{}
	}
	return report, nil
}
