package models

type CreateWorkRequest struct {
	WorkID      string `json:"workId" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type SubmissionAcceptedResponse struct {
	SubmissionID string `json:"submissionId"`
}

type SubmissionStatusResponse struct {
	SubmissionID string           `json:"submissionId"`
	Status       SubmissionStatus `json:"status"`
	Report       *Report          `json:"report,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}
