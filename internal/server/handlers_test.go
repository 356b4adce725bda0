package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/ldi/taskboard/internal/board"
	"github.com/ldi/taskboard/internal/db"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Failed to init database: %v", err)
	}

	svc := board.NewService(store)
	logger := log.New(io.Discard)
	srv := httptest.NewServer(NewServer(svc, logger).Router())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		t.Fatalf("Failed to decode envelope: %v", err)
	}
	return res, env
}

func createTask(t *testing.T, srv *httptest.Server, body map[string]any) int64 {
	t.Helper()

	res, env := doJSON(t, http.MethodPost, srv.URL+"/api/tasks", body)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d (%s)", res.StatusCode, env.Error)
	}

	task, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("Expected task payload, got %T", env.Data)
	}
	return int64(task["id"].(float64))
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	res, env := doJSON(t, http.MethodGet, srv.URL+"/api/health", nil)
	if res.StatusCode != http.StatusOK || !env.Success {
		t.Errorf("Expected healthy 200, got %d %+v", res.StatusCode, env)
	}
}

func TestCreateTaskEndpoint(t *testing.T) {
	srv := newTestServer(t)

	res, env := doJSON(t, http.MethodPost, srv.URL+"/api/tasks", map[string]any{
		"title":    "via http",
		"priority": "low",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", res.StatusCode)
	}
	if !env.Success {
		t.Errorf("Expected success envelope, got %+v", env)
	}

	task := env.Data.(map[string]any)
	if task["status"] != "TODO" || task["priority"] != "LOW" {
		t.Errorf("Unexpected task payload: %v", task)
	}
}

func TestCreateTaskValidationEnvelope(t *testing.T) {
	srv := newTestServer(t)

	res, env := doJSON(t, http.MethodPost, srv.URL+"/api/tasks", map[string]any{
		"title":    "urgent thing",
		"priority": "HIGH",
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", res.StatusCode)
	}
	if env.Success || env.Error == "" {
		t.Errorf("Expected error envelope, got %+v", env)
	}
}

func TestGetTaskBadID(t *testing.T) {
	srv := newTestServer(t)

	res, env := doJSON(t, http.MethodGet, srv.URL+"/api/tasks/abc", nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-numeric id, got %d", res.StatusCode)
	}
	if env.Success {
		t.Errorf("Expected error envelope, got %+v", env)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	srv := newTestServer(t)

	res, _ := doJSON(t, http.MethodGet, srv.URL+"/api/tasks/9999", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", res.StatusCode)
	}
}

func TestListFilterEndpoint(t *testing.T) {
	srv := newTestServer(t)

	createTask(t, srv, map[string]any{"title": "open"})
	createTask(t, srv, map[string]any{"title": "closed", "status": "DONE"})

	res, env := doJSON(t, http.MethodGet, srv.URL+"/api/tasks?status=todo", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", res.StatusCode)
	}
	if env.Count == nil || *env.Count != 1 {
		t.Errorf("Expected count 1, got %v", env.Count)
	}
}

func TestAdvanceEndpointGate(t *testing.T) {
	srv := newTestServer(t)

	id := createTask(t, srv, map[string]any{"title": "gated", "status": "IN_PROGRESS"})
	url := srv.URL + "/api/tasks/" + itoa(id) + "/advance"

	// Without readiness: client error
	res, env := doJSON(t, http.MethodPost, url, map[string]any{"ready": false})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400 without readiness, got %d (%s)", res.StatusCode, env.Error)
	}

	// With readiness: advanced to DONE
	res, env = doJSON(t, http.MethodPost, url, map[string]any{"ready": true})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d (%s)", res.StatusCode, env.Error)
	}
	task := env.Data.(map[string]any)
	if task["status"] != "DONE" {
		t.Errorf("Expected DONE, got %v", task["status"])
	}
}

func TestDeleteEndpoint(t *testing.T) {
	srv := newTestServer(t)

	id := createTask(t, srv, map[string]any{"title": "doomed"})

	res, _ := doJSON(t, http.MethodDelete, srv.URL+"/api/tasks/"+itoa(id), nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", res.StatusCode)
	}

	res, _ = doJSON(t, http.MethodGet, srv.URL+"/api/tasks/"+itoa(id), nil)
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", res.StatusCode)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	createTask(t, srv, map[string]any{"title": "counted"})

	res, env := doJSON(t, http.MethodGet, srv.URL+"/api/tasks/stats", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", res.StatusCode)
	}

	stats := env.Data.(map[string]any)
	if stats["total"].(float64) != 1 {
		t.Errorf("Expected total 1, got %v", stats["total"])
	}
	byStatus := stats["byStatus"].(map[string]any)
	if byStatus["DONE"].(float64) != 0 {
		t.Errorf("Expected zero-filled DONE category, got %v", byStatus["DONE"])
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
