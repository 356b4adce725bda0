package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ldi/taskboard/pkg/models"
)

// TaskFilters restricts FindAll to a single status and/or priority.
// Nil fields match everything.
type TaskFilters struct {
	Status   *models.Status
	Priority *models.Priority
}

// TaskFields carries a partial set of column values for UpdateTask.
// Nil fields are left untouched.
type TaskFields struct {
	Title       *string
	Description *string
	Status      *models.Status
	Priority    *models.Priority
	Link        *string
	Assignees   *[]string
}

// Empty reports whether no field is set.
func (f TaskFields) Empty() bool {
	return f.Title == nil && f.Description == nil && f.Status == nil &&
		f.Priority == nil && f.Link == nil && f.Assignees == nil
}

const taskColumns = `id, title, description, status, priority, link, assignees, created_at, updated_at`

// InsertTask inserts a new task and fills in its assigned id and timestamps.
func (db *DB) InsertTask(ctx context.Context, t *models.Task) error {
	assignees, err := marshalAssignees(t.Assignees)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (title, description, status, priority, link, assignees)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, created_at, updated_at
	`
	err = db.QueryRowContext(ctx, query,
		t.Title, t.Description, t.Status, t.Priority, t.Link, assignees,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	db.triggerChange(ctx)
	return nil
}

// FindTask retrieves a task by id. Returns nil if no such row exists.
func (db *DB) FindTask(ctx context.Context, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	t := &models.Task{}
	var assignees string
	err := db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Link, &assignees,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if err := unmarshalAssignees(assignees, &t.Assignees); err != nil {
		return nil, err
	}
	return t, nil
}

// FindAllTasks returns tasks matching the filters, newest first.
func (db *DB) FindAllTasks(ctx context.Context, filters TaskFilters) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	args := []any{}

	if filters.Status != nil {
		query += " AND status = ?"
		args = append(args, *filters.Status)
	}

	if filters.Priority != nil {
		query += " AND priority = ?"
		args = append(args, *filters.Priority)
	}

	query += " ORDER BY created_at DESC, id DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		t := &models.Task{}
		var assignees string
		err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Link, &assignees,
			&t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if err := unmarshalAssignees(assignees, &t.Assignees); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tasks, nil
}

// UpdateTask applies the supplied fields to an existing row and refreshes
// updated_at. Returns sql.ErrNoRows (wrapped) if the task does not exist.
func (db *DB) UpdateTask(ctx context.Context, id int64, fields TaskFields) (*models.Task, error) {
	if fields.Empty() {
		return db.FindTask(ctx, id)
	}

	query := `UPDATE tasks SET `
	args := []any{}

	if fields.Title != nil {
		query += "title = ?, "
		args = append(args, *fields.Title)
	}
	if fields.Description != nil {
		query += "description = ?, "
		args = append(args, *fields.Description)
	}
	if fields.Status != nil {
		query += "status = ?, "
		args = append(args, *fields.Status)
	}
	if fields.Priority != nil {
		query += "priority = ?, "
		args = append(args, *fields.Priority)
	}
	if fields.Link != nil {
		query += "link = ?, "
		args = append(args, *fields.Link)
	}
	if fields.Assignees != nil {
		assignees, err := marshalAssignees(*fields.Assignees)
		if err != nil {
			return nil, err
		}
		query += "assignees = ?, "
		args = append(args, assignees)
	}

	query += "updated_at = CURRENT_TIMESTAMP WHERE id = ? RETURNING " + taskColumns
	args = append(args, id)

	t := &models.Task{}
	var assignees string
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Link, &assignees,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %d: %w", id, sql.ErrNoRows)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if err := unmarshalAssignees(assignees, &t.Assignees); err != nil {
		return nil, err
	}

	db.triggerChange(ctx)
	return t, nil
}

// DeleteTask removes a task by id. Returns false if no row was removed.
func (db *DB) DeleteTask(ctx context.Context, id int64) (bool, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	db.triggerChange(ctx)
	return true, nil
}

// CountByStatus returns task counts grouped by status. Statuses with no
// tasks are absent from the map; the service layer zero-fills them.
func (db *DB) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var s models.Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[s] = n
	}
	return counts, rows.Err()
}

// CountByPriority returns task counts grouped by priority.
func (db *DB) CountByPriority(ctx context.Context) (map[models.Priority]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT priority, COUNT(*) FROM tasks GROUP BY priority`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by priority: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Priority]int)
	for rows.Next() {
		var p models.Priority
		var n int
		if err := rows.Scan(&p, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[p] = n
	}
	return counts, rows.Err()
}

func marshalAssignees(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("failed to marshal assignees: %w", err)
	}
	return string(data), nil
}

func unmarshalAssignees(data string, into *[]string) error {
	if data == "" || data == "[]" {
		*into = nil
		return nil
	}
	if err := json.Unmarshal([]byte(data), into); err != nil {
		return fmt.Errorf("failed to unmarshal assignees: %w", err)
	}
	return nil
}
