package board

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ldi/taskboard/internal/db"
	"github.com/ldi/taskboard/pkg/models"
)

// Service orchestrates the validator, the transition engine, and the store
// into the board's public operations. It holds no task state of its own;
// every operation reads or writes through the store.
type Service struct {
	store    *db.DB
	validate *validator.Validate
	events   emitter
}

func NewService(store *db.DB) *Service {
	return &Service{
		store:    store,
		validate: newValidator(),
	}
}

// Subscribe registers a collaborator notified after successful mutations.
func (s *Service) Subscribe(fn Subscriber) {
	s.events.subscribe(fn)
}

// Filters restricts List to one status and/or one priority. Values are
// matched case-insensitively.
type Filters struct {
	Status   string
	Priority string
}

// List returns tasks matching the filters, most recently created first.
// An empty result is not an error.
func (s *Service) List(ctx context.Context, filters Filters) ([]*models.Task, error) {
	var dbFilters db.TaskFilters
	var fields []FieldError

	if strings.TrimSpace(filters.Status) != "" {
		status, err := models.ParseStatus(filters.Status)
		if err != nil {
			fields = append(fields, FieldError{Field: "status", Message: "status must be one of TODO, IN_PROGRESS, DONE"})
		} else {
			dbFilters.Status = &status
		}
	}

	if strings.TrimSpace(filters.Priority) != "" {
		priority, err := models.ParsePriority(filters.Priority)
		if err != nil {
			fields = append(fields, FieldError{Field: "priority", Message: "priority must be one of LOW, MEDIUM, HIGH"})
		} else {
			dbFilters.Priority = &priority
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	tasks, err := s.store.FindAllTasks(ctx, dbFilters)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	return tasks, nil
}

// Get returns the task with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.store.FindTask(ctx, id)
	if err != nil {
		return nil, &StorageError{Op: "get", Err: err}
	}
	if task == nil {
		return nil, &NotFoundError{ID: id}
	}
	return task, nil
}

// Create validates the request and persists a new task. All validation
// failures are collected before the store is touched.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Task, error) {
	req.normalize()

	fields := collectFailures(s.validate, req)

	status := models.StatusTodo
	if req.Status != "" {
		if parsed, err := models.ParseStatus(req.Status); err == nil {
			status = parsed
		}
	}

	priority := models.PriorityMedium
	if req.Priority != "" {
		if parsed, err := models.ParsePriority(req.Priority); err == nil {
			priority = parsed
		}
	}

	if fe := highPriorityFailure(priority, req.Description); fe != nil {
		fields = append(fields, *fe)
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    priority,
		Link:        req.Link,
		Assignees:   req.Assignees,
	}

	if err := s.store.InsertTask(ctx, task); err != nil {
		return nil, &StorageError{Op: "create", Err: err}
	}

	s.events.emit(Event{Type: EventTaskCreated, Task: *task})
	return task, nil
}

// Update applies a partial update. Validation runs against the merged view
// of the existing task and the incoming fields, and the transition engine
// guards any status change.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*models.Task, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	req.normalize()

	fields := collectFailures(s.validate, req)

	// The required tag cannot fire for absent pointer fields, so a
	// supplied-but-blank title is checked here.
	if req.Title != nil && *req.Title == "" {
		fields = append(fields, FieldError{Field: "title", Message: "title is required"})
	}

	// Merged view: what the task would look like after this update.
	mergedPriority := existing.Priority
	if req.Priority != nil {
		if parsed, err := models.ParsePriority(*req.Priority); err == nil {
			mergedPriority = parsed
		}
	}
	mergedDescription := existing.Description
	if req.Description != nil {
		mergedDescription = *req.Description
	}

	if fe := highPriorityFailure(mergedPriority, mergedDescription); fe != nil {
		fields = append(fields, *fe)
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	var newStatus *models.Status
	if req.Status != nil {
		parsed, perr := models.ParseStatus(*req.Status)
		if perr != nil {
			// Unreachable: the oneof tag already rejected it.
			return nil, &ValidationError{Fields: []FieldError{{Field: "status", Message: "status must be one of TODO, IN_PROGRESS, DONE"}}}
		}
		if err := CheckTransition(existing.Status, parsed, req.Ready); err != nil {
			return nil, err
		}
		newStatus = &parsed
	}

	dbFields := db.TaskFields{
		Title:       req.Title,
		Description: req.Description,
		Status:      newStatus,
		Priority:    nil,
		Link:        req.Link,
		Assignees:   req.Assignees,
	}
	if req.Priority != nil {
		dbFields.Priority = &mergedPriority
	}

	updated, err := s.store.UpdateTask(ctx, id, dbFields)
	if err != nil {
		return nil, &StorageError{Op: "update", Err: err}
	}

	if newStatus != nil && *newStatus != existing.Status {
		s.events.emit(Event{
			Type: EventTaskStatusChanged,
			Task: *updated,
			From: existing.Status,
			To:   *newStatus,
		})
	}
	return updated, nil
}

// Advance moves a task to the next status in the forward flow. ready
// asserts the client-side readiness gate, required for the transition
// into DONE.
func (s *Service) Advance(ctx context.Context, id int64, ready bool) (*models.Task, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := NextStatus(existing.Status)
	if err != nil {
		return nil, err
	}

	if err := CheckTransition(existing.Status, next, ready); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateTask(ctx, id, db.TaskFields{Status: &next})
	if err != nil {
		return nil, &StorageError{Op: "advance", Err: err}
	}

	s.events.emit(Event{
		Type: EventTaskStatusChanged,
		Task: *updated,
		From: existing.Status,
		To:   next,
	})
	return updated, nil
}

// Delete removes a task permanently.
func (s *Service) Delete(ctx context.Context, id int64) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	removed, err := s.store.DeleteTask(ctx, id)
	if err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	if !removed {
		return &NotFoundError{ID: id}
	}

	s.events.emit(Event{Type: EventTaskDeleted, Task: *existing})
	return nil
}

// Statistics returns task counts partitioned by status and by priority.
// Categories with no tasks are reported as zero rather than omitted.
func (s *Service) Statistics(ctx context.Context) (*models.Statistics, error) {
	byStatus, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, &StorageError{Op: "statistics", Err: err}
	}

	byPriority, err := s.store.CountByPriority(ctx)
	if err != nil {
		return nil, &StorageError{Op: "statistics", Err: err}
	}

	stats := &models.Statistics{
		ByStatus:   make(map[models.Status]int, 3),
		ByPriority: make(map[models.Priority]int, 3),
	}
	for _, status := range models.Statuses() {
		stats.ByStatus[status] = byStatus[status]
		stats.Total += byStatus[status]
	}
	for _, priority := range models.Priorities() {
		stats.ByPriority[priority] = byPriority[priority]
	}
	return stats, nil
}
