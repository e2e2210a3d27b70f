package service

import (
	"errors"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrWorkAlreadyExists  = errors.New("work already exists")
	ErrWorkNotFound       = errors.New("work not found")
	ErrSubmissionNotFound = errors.New("submission not found")

	// external renderer failures, mapped to 502 in delivery
	ErrWordCloudUnavailable = errors.New("wordcloud renderer unavailable")
)
