package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"slugline/internal/api"
	"slugline/internal/jobs"
	"slugline/internal/scripts"
)

const maxRequestBodySize = 32 << 20 // generous; the service enforces the real upload limit

type createScriptRequest struct {
	Title         string `json:"title"`
	Filename      string `json:"filename"`
	Content       string `json:"content"`
	ContentBase64 string `json:"contentBase64"`
}

type createJobRequest struct {
	ScriptID        string   `json:"scriptId"`
	SelectedColumns []string `json:"selectedColumns"`
}

func handleCreateScript(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req createScriptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body: %v", err)
			return
		}

		var data []byte
		switch {
		case req.ContentBase64 != "":
			decoded, err := base64.StdEncoding.DecodeString(req.ContentBase64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request", "invalid base64 content")
				return
			}
			data = decoded
		case req.Content != "":
			data = []byte(req.Content)
		default:
			writeError(w, http.StatusBadRequest, "invalid_request", "one of content or contentBase64 is required")
			return
		}

		script, err := deps.Service.CreateScript(r.Context(), userID(r), req.Title, req.Filename, data)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, script)
	}
}

func handleListScripts(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := deps.Service.ListScripts(r.Context(), userID(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"scripts": list})
	}
}

func handleGetScript(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		script, err := deps.Service.GetScript(r.Context(), userID(r), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, script)
	}
}

func handleCreateJob(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		defer r.Body.Close()

		var req createJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body: %v", err)
			return
		}
		if req.ScriptID == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "scriptId is required")
			return
		}

		job, err := deps.Service.CreateJob(r.Context(), userID(r), req.ScriptID, req.SelectedColumns)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, job)
	}
}

func handleListJobs(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := deps.Service.ListJobs(r.Context(), userID(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"jobs": list})
	}
}

func handleGetJob(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found", "no such job")
			return
		}
		job, err := deps.Service.GetJob(r.Context(), userID(r), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

func handleUsage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		usage, err := deps.Service.Usage(r.Context(), userID(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, usage)
	}
}

func handleHealthz(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := deps.Service.Stats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "job stats unavailable: %v", err)
			return
		}
		payload := map[string]any{
			"status": "ok",
			"jobs":   stats,
		}
		if deps.Workflow != nil {
			payload["workflowRunning"] = deps.Workflow.Running()
			payload["activeJobs"] = deps.Workflow.ActiveJobs()
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

// writeServiceError maps facade errors onto HTTP status codes and stable
// error codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var conflict *jobs.ConflictError
	switch {
	case errors.As(err, &conflict):
		writeErrorPayload(w, http.StatusConflict, map[string]any{
			"code":          "conflicting_job",
			"message":       "an active job already exists for this script",
			"existingJobId": conflict.ExistingJobID,
		})
	case errors.Is(err, api.ErrInvalidColumnSet):
		writeError(w, http.StatusBadRequest, "invalid_column_set", "%v", err)
	case errors.Is(err, api.ErrUploadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "upload_too_large", "%v", err)
	case errors.Is(err, scripts.ErrInvalidDocument):
		writeError(w, http.StatusBadRequest, "invalid_document", "%v", err)
	case errors.Is(err, api.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "you do not own this resource")
	case errors.Is(err, scripts.ErrNotFound), errors.Is(err, jobs.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "%v", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "%v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, format string, args ...any) {
	writeErrorPayload(w, status, map[string]any{
		"code":    code,
		"message": fmt.Sprintf(format, args...),
	})
}

func writeErrorPayload(w http.ResponseWriter, status int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": payload})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
