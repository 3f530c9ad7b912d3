package models

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusWIP        Status = "wip"
	StatusCompleted  Status = "completed"
)

var (
	AllowedPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}
	AllowedStatuses   = []Status{StatusNotStarted, StatusWIP, StatusCompleted}
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusWIP, StatusCompleted:
		return true
	}
	return false
}

// Transitions returns the statuses a task card offers to move to from s.
func (s Status) Transitions() []Status {
	switch s {
	case StatusNotStarted:
		return []Status{StatusWIP, StatusCompleted}
	case StatusWIP:
		return []Status{StatusNotStarted, StatusCompleted}
	case StatusCompleted:
		return []Status{StatusNotStarted, StatusWIP}
	}
	return nil
}

// "low, medium, high"
func PriorityList() string {
	names := make([]string, len(AllowedPriorities))
	for i, p := range AllowedPriorities {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// "not_started, wip, completed"
func StatusList() string {
	names := make([]string, len(AllowedStatuses))
	for i, s := range AllowedStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

type Task struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Priority    Priority  `json:"priority" db:"priority"`
	Status      Status    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Completed is the boolean view of Status used by the to-do list.
func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// CreateTaskRequest is the body accepted by the creation gateway and by
// POST /tasks on the store. Pointer fields distinguish "absent" from "empty".
type CreateTaskRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	UserID      *string   `json:"user_id"`
}

// NewTask is a validated, normalized insert.
type NewTask struct {
	UserID      string
	Title       string
	Description string
	Priority    Priority
	Status      Status
}

// Normalize trims text fields and fills priority and status defaults.
// Empty enum values count as absent.
func (r CreateTaskRequest) Normalize() NewTask {
	nt := NewTask{
		Priority: PriorityMedium,
		Status:   StatusNotStarted,
	}
	if r.UserID != nil {
		nt.UserID = *r.UserID
	}
	if r.Title != nil {
		nt.Title = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		nt.Description = strings.TrimSpace(*r.Description)
	}
	if r.Priority != nil && *r.Priority != "" {
		nt.Priority = *r.Priority
	}
	if r.Status != nil && *r.Status != "" {
		nt.Status = *r.Status
	}
	return nt
}

// TaskPatch carries the mutable fields of a task. Nil fields are left as is.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Status      *Status   `json:"status,omitempty"`
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.Status == nil
}

// Apply returns t with the patch fields written over it.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	return t
}
