// Package board implements the task lifecycle rules: validation, the
// status transition engine, and the service that ties them to the store.
package board

import (
	"fmt"
	"strings"

	"github.com/ldi/taskboard/pkg/models"
)

// FieldError describes a single validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every validation failure found in one pass.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "invalid task: " + strings.Join(msgs, "; ")
}

// NotFoundError signals that no task has the requested id.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %d not found", e.ID)
}

// TransitionError signals an illegal status change.
type TransitionError struct {
	From   models.Status
	To     models.Status
	Reason string
}

func (e *TransitionError) Error() string {
	return e.Reason
}

// StorageError wraps a failure from the persistence layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
