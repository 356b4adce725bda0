package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ldi/taskboard/internal/board"
)

// envelope is the response shape shared by every endpoint: a success flag,
// a payload on success, an error message on failure.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "taskboard API is ready"})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	filters := board.Filters{
		Status:   r.URL.Query().Get("status"),
		Priority: r.URL.Query().Get("priority"),
	}

	tasks, err := s.svc.List(r.Context(), filters)
	if err != nil {
		s.writeError(w, err)
		return
	}

	count := len(tasks)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: tasks, Count: &count})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}

	task, err := s.svc.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: task})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req board.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Error: "invalid JSON body"})
		return
	}

	task, err := s.svc.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: task, Message: "task created"})
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}

	var req board.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Error: "invalid JSON body"})
		return
	}

	task, err := s.svc.Update(r.Context(), id, req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: task, Message: "task updated"})
}

func (s *Server) handleAdvanceTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}

	var req struct {
		Ready bool `json:"ready"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, envelope{Success: false, Error: "invalid JSON body"})
			return
		}
	}

	task, err := s.svc.Advance(r.Context(), id, req.Ready)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: task, Message: "task advanced"})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}

	if err := s.svc.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "task deleted"})
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Statistics(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: stats})
}

func (s *Server) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Error: "task id must be numeric"})
		return 0, false
	}
	return id, true
}

// writeError maps the board's error kinds onto HTTP status classes. The
// presentation layer switches on kind, never on message text.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *board.ValidationError
		notFoundErr   *board.NotFoundError
		transitionErr *board.TransitionError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Error: validationErr.Error(), Data: validationErr.Fields})
	case errors.As(err, &notFoundErr):
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Error: notFoundErr.Error()})
	case errors.As(err, &transitionErr):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Error: transitionErr.Error()})
	default:
		s.logger.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
