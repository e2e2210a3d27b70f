package models

import (
	"time"
)

type ReportStatus string

const (
	ReportStatusDone  ReportStatus = "DONE"
	ReportStatusError ReportStatus = "ERROR"
)

func (rs ReportStatus) String() string {
	return string(rs)
}

// Report is the persisted outcome of comparing one submission against all
// prior DONE submissions of the same work. Written exactly once, when the
// submission reaches a terminal state.
type Report struct {
	SubmissionID       string              `json:"submissionId" db:"submission_id"`
	WorkID             string              `json:"workId" db:"work_id"`
	Status             ReportStatus        `json:"status" db:"status"`
	SimilarityPercent  float64             `json:"similarityPercent" db:"similarity_percent"`
	MatchedSubmissions []MatchedSubmission `json:"matchedSubmissions" db:"matched_submissions"`
	ErrorReason        string              `json:"errorReason,omitempty" db:"error_reason"`
	CreatedAt          time.Time           `json:"createdAt" db:"created_at"`
}

// MatchedSubmission references a prior submission whose pairwise similarity
// reached the matching threshold.
type MatchedSubmission struct {
	SubmissionID      string  `json:"submissionId"`
	SimilarityPercent float64 `json:"similarityPercent"`
}
