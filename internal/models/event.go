package models

type SubmissionQueuedEvent struct {
	SubmissionID string `json:"submission_id"`
	WorkID       string `json:"work_id"`
	Timestamp    int64  `json:"timestamp"`
}
