package jobs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no job exists for the requested id.
	ErrNotFound = errors.New("job not found")
	// ErrConflictingJob indicates the user already has an active job for the
	// same script. Match with errors.Is; the concrete error carries the
	// existing job id.
	ErrConflictingJob = errors.New("conflicting active job")
)

// ConflictError reports which active job blocked creation.
type ConflictError struct {
	ExistingJobID int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting active job %d", e.ExistingJobID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflictingJob
}
