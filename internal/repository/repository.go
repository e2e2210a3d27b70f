package repository

import (
	"context"
	"errors"

	"antiplagiarism/internal/models"
)

var (
	ErrWorkAlreadyExists  = errors.New("work already exists")
	ErrWorkNotFound       = errors.New("work not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrReportNotFound     = errors.New("report not found")
	ErrReportExists       = errors.New("report already exists")
	ErrContentNotFound    = errors.New("submission content not found")
)

type WorkRepository interface {
	CreateWork(ctx context.Context, workID, name, description string) (models.Work, error)
	GetWork(ctx context.Context, workID string) (models.Work, error)
}

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, submission models.Submission) error
	GetSubmission(ctx context.Context, submissionID string) (models.Submission, error)
	// ListDoneSubmissions returns DONE submissions of the work in creation order.
	ListDoneSubmissions(ctx context.Context, workID string) ([]models.Submission, error)
	CountSubmissions(ctx context.Context, workID string) (int, error)
	// MarkProcessing claims a PENDING submission. ErrSubmissionNotFound is
	// returned when the submission does not exist or is no longer PENDING,
	// so a submission is claimed at most once.
	MarkProcessing(ctx context.Context, submissionID string) error
}

type ReportRepository interface {
	// FinishSubmission atomically writes the report and moves its submission
	// to the matching terminal status. A reader never observes a terminal
	// submission without its report.
	FinishSubmission(ctx context.Context, report models.Report) error
	GetReport(ctx context.Context, submissionID string) (models.Report, error)
	// ListReports returns the work's reports in creation order.
	ListReports(ctx context.Context, workID string) ([]models.Report, error)
	// AverageSimilarity is the mean similarityPercent over DONE reports,
	// 0 when the work has none.
	AverageSimilarity(ctx context.Context, workID string) (float64, error)
}

// ContentStore holds raw submission bytes, write-once per submission.
type ContentStore interface {
	PutContent(ctx context.Context, submissionID string, content []byte) error
	GetContent(ctx context.Context, submissionID string) ([]byte, error)
}
