package models

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// ParseStatus normalizes a status string (case-insensitive) into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusTodo:
		return StatusTodo, nil
	case StatusInProgress:
		return StatusInProgress, nil
	case StatusDone:
		return StatusDone, nil
	}
	return "", fmt.Errorf("unknown status: %q", s)
}

// ParsePriority normalizes a priority string (case-insensitive) into a Priority.
func ParsePriority(s string) (Priority, error) {
	switch Priority(strings.ToUpper(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow, nil
	case PriorityMedium:
		return PriorityMedium, nil
	case PriorityHigh:
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("unknown priority: %q", s)
}

// Next returns the status that follows s in the board's forward flow.
// DONE maps to itself; the service treats advancing a DONE task as an error.
func (s Status) Next() Status {
	switch s {
	case StatusTodo:
		return StatusInProgress
	case StatusInProgress:
		return StatusDone
	default:
		return StatusDone
	}
}

// Statuses and Priorities list all recognized values in board order.
func Statuses() []Status { return []Status{StatusTodo, StatusInProgress, StatusDone} }

func Priorities() []Priority { return []Priority{PriorityLow, PriorityMedium, PriorityHigh} }

type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	Link        string    `json:"link,omitempty"`
	Assignees   []string  `json:"assignees,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Statistics aggregates task counts by status and priority.
// Every recognized category is present, zero when empty.
type Statistics struct {
	Total      int              `json:"total"`
	ByStatus   map[Status]int   `json:"byStatus"`
	ByPriority map[Priority]int `json:"byPriority"`
}
