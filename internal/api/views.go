package api

import (
	"encoding/json"
	"time"

	"slugline/internal/jobs"
	"slugline/internal/quota"
	"slugline/internal/scripts"
)

// ScriptView is the transport representation of a stored script. Content is
// never exposed through the API.
type ScriptView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	FileType    string    `json:"fileType"`
	FileSize    int64     `json:"fileSize"`
	PageCount   int       `json:"pageCount"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"createdAt"`
}

// JobView is the transport representation of a parse job.
type JobView struct {
	ID              int64           `json:"id"`
	ScriptID        string          `json:"scriptId"`
	Status          string          `json:"status"`
	SelectedColumns []string        `json:"selectedColumns"`
	Preview         json.RawMessage `json:"previewData,omitempty"`
	FullParse       json.RawMessage `json:"fullParseData,omitempty"`
	Error           string          `json:"errorMessage,omitempty"`
	PagesCharged    int             `json:"pagesCharged,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	StartedAt       *time.Time      `json:"startedAt,omitempty"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
}

// UsageView is the transport representation of a user's quota position.
type UsageView struct {
	UserID        string `json:"userId"`
	Tier          string `json:"tier"`
	UsedPages     int    `json:"usedPages"`
	ReservedPages int    `json:"reservedPages"`
	TotalPages    int    `json:"totalPages"`
	Unlimited     bool   `json:"unlimited"`
}

// FromScript converts a stored script into its DTO.
func FromScript(script *scripts.Script) ScriptView {
	return ScriptView{
		ID:          script.ID,
		Title:       script.Title,
		FileType:    string(script.FileType),
		FileSize:    script.FileSize,
		PageCount:   script.PageCount,
		Fingerprint: script.Fingerprint,
		CreatedAt:   script.CreatedAt,
	}
}

// FromScripts converts a script list, preserving order.
func FromScripts(list []*scripts.Script) []ScriptView {
	out := make([]ScriptView, len(list))
	for i, script := range list {
		out[i] = FromScript(script)
	}
	return out
}

// FromJob converts a job into its DTO. Stored output is already JSON and is
// passed through untouched.
func FromJob(job *jobs.Job) JobView {
	view := JobView{
		ID:              job.ID,
		ScriptID:        job.ScriptID,
		Status:          string(job.Status),
		SelectedColumns: append([]string(nil), job.SelectedColumns...),
		Error:           job.ErrorMessage,
		PagesCharged:    job.PagesCharged,
		CreatedAt:       job.CreatedAt,
		StartedAt:       job.StartedAt,
		CompletedAt:     job.CompletedAt,
	}
	if job.PreviewJSON != "" {
		view.Preview = json.RawMessage(job.PreviewJSON)
	}
	if job.FullParseJSON != "" {
		view.FullParse = json.RawMessage(job.FullParseJSON)
	}
	return view
}

// FromJobs converts a job list, preserving order.
func FromJobs(list []*jobs.Job) []JobView {
	out := make([]JobView, len(list))
	for i, job := range list {
		out[i] = FromJob(job)
	}
	return out
}

// FromUsage converts a ledger snapshot into its DTO.
func FromUsage(usage quota.Usage) UsageView {
	return UsageView{
		UserID:        usage.UserID,
		Tier:          string(usage.Tier),
		UsedPages:     usage.UsedPages,
		ReservedPages: usage.ReservedPages,
		TotalPages:    usage.TotalPages,
		Unlimited:     usage.Unlimited,
	}
}
