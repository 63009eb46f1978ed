package httpapi_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"slugline/internal/api"
	"slugline/internal/httpapi"
	"slugline/internal/jobs"
	"slugline/internal/quota"
	"slugline/internal/scripts"
	"slugline/internal/testsupport"
)

const sampleScript = "INT. COFFEE SHOP - DAY\n\nJane waits.\n\nEXT. STREET - NIGHT\n\nShe runs.\n"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	scriptStore, err := scripts.Open(cfg)
	if err != nil {
		t.Fatalf("open script store: %v", err)
	}
	t.Cleanup(func() { _ = scriptStore.Close() })

	jobStore, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("open job store: %v", err)
	}
	t.Cleanup(func() { _ = jobStore.Close() })

	ledger, err := quota.Open(cfg)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { _ = ledger.Close() })

	svc := api.NewService(cfg, scriptStore, jobStore, ledger, nil)
	server := httptest.NewServer(httpapi.NewHandler(httpapi.Deps{Service: svc}))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, server *httptest.Server, method, path, user string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, payload
}

func uploadScript(t *testing.T, server *httptest.Server, user string) string {
	t.Helper()
	resp, payload := doJSON(t, server, http.MethodPost, "/api/v1/scripts", user, map[string]any{
		"title":    "Sample",
		"filename": "sample.txt",
		"content":  sampleScript,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d: %v", resp.StatusCode, payload)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatalf("missing script id in %v", payload)
	}
	return id
}

func errorField(t *testing.T, payload map[string]any, field string) any {
	t.Helper()
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in %v", payload)
	}
	return errObj[field]
}

func TestMissingUserHeader(t *testing.T) {
	server := newServer(t)
	resp, payload := doJSON(t, server, http.MethodGet, "/api/v1/scripts", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if errorField(t, payload, "code") != "missing_user" {
		t.Fatalf("unexpected error payload %v", payload)
	}
}

func TestScriptUploadAndList(t *testing.T) {
	server := newServer(t)
	scriptID := uploadScript(t, server, "user-1")

	resp, payload := doJSON(t, server, http.MethodGet, "/api/v1/scripts", "user-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	list, ok := payload["scripts"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("unexpected listing %v", payload)
	}

	resp, _ = doJSON(t, server, http.MethodGet, "/api/v1/scripts/"+scriptID, "user-2", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("cross-user fetch status = %d, want 403", resp.StatusCode)
	}
}

func TestCreateJobAndFetch(t *testing.T) {
	server := newServer(t)
	scriptID := uploadScript(t, server, "user-1")

	resp, payload := doJSON(t, server, http.MethodPost, "/api/v1/jobs", "user-1", map[string]any{
		"scriptId":        scriptID,
		"selectedColumns": []string{"sceneNumber", "sceneHeading"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create job status = %d: %v", resp.StatusCode, payload)
	}
	if payload["status"] != "pending" {
		t.Fatalf("job status = %v, want pending", payload["status"])
	}
	jobID := int64(payload["id"].(float64))

	resp, payload = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/v1/jobs/%d", jobID), "user-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get job status = %d", resp.StatusCode)
	}
	if payload["scriptId"] != scriptID {
		t.Fatalf("unexpected job payload %v", payload)
	}

	resp, _ = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/v1/jobs/%d", jobID), "user-2", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("cross-user job fetch status = %d, want 403", resp.StatusCode)
	}
	resp, _ = doJSON(t, server, http.MethodGet, "/api/v1/jobs/999999", "user-1", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing job status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateJobInvalidColumns(t *testing.T) {
	server := newServer(t)
	scriptID := uploadScript(t, server, "user-1")

	resp, payload := doJSON(t, server, http.MethodPost, "/api/v1/jobs", "user-1", map[string]any{
		"scriptId":        scriptID,
		"selectedColumns": []string{"sceneHeading", "budget"},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if errorField(t, payload, "code") != "invalid_column_set" {
		t.Fatalf("unexpected error payload %v", payload)
	}

	// An empty selection is rejected the same way; clients must choose.
	resp, payload = doJSON(t, server, http.MethodPost, "/api/v1/jobs", "user-1", map[string]any{
		"scriptId": scriptID,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty selection status = %d, want 400", resp.StatusCode)
	}
	if errorField(t, payload, "code") != "invalid_column_set" {
		t.Fatalf("unexpected error payload %v", payload)
	}
}

func TestCreateJobConflictCarriesExistingID(t *testing.T) {
	server := newServer(t)
	scriptID := uploadScript(t, server, "user-1")

	body := map[string]any{"scriptId": scriptID, "selectedColumns": []string{"sceneHeading"}}
	resp, payload := doJSON(t, server, http.MethodPost, "/api/v1/jobs", "user-1", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first job status = %d", resp.StatusCode)
	}
	firstID := payload["id"].(float64)

	resp, payload = doJSON(t, server, http.MethodPost, "/api/v1/jobs", "user-1", body)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	if errorField(t, payload, "code") != "conflicting_job" {
		t.Fatalf("unexpected error payload %v", payload)
	}
	if errorField(t, payload, "existingJobId") != firstID {
		t.Fatalf("expected existing job id %v in %v", firstID, payload)
	}
}

func TestCreateJobMissingScript(t *testing.T) {
	server := newServer(t)
	resp, payload := doJSON(t, server, http.MethodPost, "/api/v1/jobs", "user-1", map[string]any{
		"scriptId":        "no-such",
		"selectedColumns": []string{"sceneHeading"},
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if errorField(t, payload, "code") != "not_found" {
		t.Fatalf("unexpected error payload %v", payload)
	}
}

func TestHealthzAndUsage(t *testing.T) {
	server := newServer(t)

	resp, payload := doJSON(t, server, http.MethodGet, "/api/v1/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
	if payload["status"] != "ok" {
		t.Fatalf("unexpected healthz payload %v", payload)
	}

	resp, payload = doJSON(t, server, http.MethodGet, "/api/v1/usage", "user-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("usage status = %d", resp.StatusCode)
	}
	if payload["tier"] != "free" {
		t.Fatalf("unexpected usage payload %v", payload)
	}
}
