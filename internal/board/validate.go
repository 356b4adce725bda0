package board

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ldi/taskboard/pkg/models"
)

// CreateRequest is the incoming contract for creating a task. Status and
// priority arrive as free-form strings and are normalized to uppercase
// before validation.
type CreateRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description"`
	Status      string   `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	Priority    string   `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	Link        string   `json:"link"`
	Assignees   []string `json:"assignees"`
}

// UpdateRequest is the incoming contract for a partial update. Nil fields
// are left untouched.
type UpdateRequest struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string   `json:"description,omitempty"`
	Status      *string   `json:"status,omitempty" validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	Priority    *string   `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	Link        *string   `json:"link,omitempty"`
	Assignees   *[]string `json:"assignees,omitempty"`

	// Ready asserts the client-side readiness gate for a transition into
	// DONE. It is a precondition for the transition engine, never persisted.
	Ready bool `json:"ready,omitempty"`
}

func newValidator() *validator.Validate {
	v := validator.New()

	// Report failures under the wire field names, not Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

func (r *CreateRequest) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Link = strings.TrimSpace(r.Link)
	r.Status = strings.ToUpper(strings.TrimSpace(r.Status))
	r.Priority = strings.ToUpper(strings.TrimSpace(r.Priority))
}

func (r *UpdateRequest) normalize() {
	if r.Title != nil {
		*r.Title = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		*r.Description = strings.TrimSpace(*r.Description)
	}
	if r.Link != nil {
		*r.Link = strings.TrimSpace(*r.Link)
	}
	if r.Status != nil {
		*r.Status = strings.ToUpper(strings.TrimSpace(*r.Status))
	}
	if r.Priority != nil {
		*r.Priority = strings.ToUpper(strings.TrimSpace(*r.Priority))
	}
}

// collectFailures runs the struct validator and converts every failure into
// a FieldError. All failures are reported at once, never short-circuited.
func collectFailures(v *validator.Validate, req any) []FieldError {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: failureMessage(fe)})
	}
	return fields
}

func failureMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// highPriorityFailure enforces the coupling rule: a HIGH-priority task must
// carry a non-empty description at the moment that state is reached.
func highPriorityFailure(priority models.Priority, description string) *FieldError {
	if priority == models.PriorityHigh && strings.TrimSpace(description) == "" {
		return &FieldError{
			Field:   "description",
			Message: "high priority tasks require a description",
		}
	}
	return nil
}
