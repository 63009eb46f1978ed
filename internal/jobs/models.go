package jobs

import "time"

// Status captures the lifecycle stage of a parse job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Job is one parse request moving through the pipeline.
//
// PreviewJSON holds the projected preview scenes and is written while the job
// is still processing, so clients polling the job can show early results.
// FullParseJSON is only ever written together with the completed status.
type Job struct {
	ID              int64
	ScriptID        string
	UserID          string
	Status          Status
	SelectedColumns []string
	PreviewJSON     string
	FullParseJSON   string
	ErrorMessage    string
	PagesCharged    int
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
}
