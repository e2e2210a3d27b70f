package models

import (
	"time"
)

type SubmissionStatus string

const (
	SubmissionStatusPending    SubmissionStatus = "PENDING"
	SubmissionStatusProcessing SubmissionStatus = "PROCESSING"
	SubmissionStatusDone       SubmissionStatus = "DONE"
	SubmissionStatusError      SubmissionStatus = "ERROR"
)

func (s SubmissionStatus) String() string {
	return string(s)
}

// Terminal reports whether no further transitions are possible.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionStatusDone || s == SubmissionStatusError
}

type Submission struct {
	SubmissionID string           `json:"submissionId" db:"submission_id"`
	WorkID       string           `json:"workId" db:"work_id"`
	Filename     string           `json:"filename" db:"filename"`
	Status       SubmissionStatus `json:"status" db:"status"`
	CreatedAt    time.Time        `json:"createdAt" db:"created_at"`
}
