package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"slugline/internal/api"
)

type contextKey string

const userIDKey contextKey = "userID"

// WorkflowStatus reports runtime information from the workflow manager.
type WorkflowStatus interface {
	Running() bool
	ActiveJobs() int
}

// Deps carries the collaborators the handler needs.
type Deps struct {
	Service  *api.Service
	Workflow WorkflowStatus
}

// NewHandler builds the REST router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", handleHealthz(deps))

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/scripts", handleCreateScript(deps))
			r.Get("/scripts", handleListScripts(deps))
			r.Get("/scripts/{id}", handleGetScript(deps))
			r.Post("/jobs", handleCreateJob(deps))
			r.Get("/jobs", handleListJobs(deps))
			r.Get("/jobs/{id}", handleGetJob(deps))
			r.Get("/usage", handleUsage(deps))
		})
	})

	return r
}

// requireUser extracts the trusted identity header set by the auth gateway.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing_user", "X-User-ID header is required")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
