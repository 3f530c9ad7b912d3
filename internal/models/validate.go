package models

import (
	"strings"
)

// ValidationError is a client input error. Message is safe to show to users.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// Validate checks a creation request in order and reports the first failure.
func (r CreateTaskRequest) Validate() error {
	if r.Title == nil || *r.Title == "" || r.UserID == nil || *r.UserID == "" {
		return invalid("Missing required fields: title and user_id.")
	}
	if strings.TrimSpace(*r.Title) == "" {
		return invalid("Title cannot be empty.")
	}
	if r.Priority != nil && *r.Priority != "" && !r.Priority.Valid() {
		return invalid("Invalid priority value. Must be one of: " + PriorityList() + ".")
	}
	if r.Status != nil && *r.Status != "" && !r.Status.Valid() {
		return invalid("Invalid status value. Must be one of: " + StatusList() + ".")
	}
	return nil
}

// Validate rejects empty patches, blank titles and unknown enum values.
func (p TaskPatch) Validate() error {
	if p.Empty() {
		return invalid("Nothing to update.")
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return invalid("Title cannot be empty.")
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return invalid("Invalid priority value. Must be one of: " + PriorityList() + ".")
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalid("Invalid status value. Must be one of: " + StatusList() + ".")
	}
	return nil
}

// Normalize trims the text fields of the patch.
func (p TaskPatch) Normalize() TaskPatch {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		p.Description = &desc
	}
	return p
}
