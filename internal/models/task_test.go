package models

import (
	"errors"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestCreateTaskRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateTaskRequest
		wantMsg string
	}{
		{
			name:    "missing title",
			req:     CreateTaskRequest{UserID: ptr("u1")},
			wantMsg: "Missing required fields: title and user_id.",
		},
		{
			name:    "empty title counts as missing",
			req:     CreateTaskRequest{Title: ptr(""), UserID: ptr("u1")},
			wantMsg: "Missing required fields: title and user_id.",
		},
		{
			name:    "missing user",
			req:     CreateTaskRequest{Title: ptr("Buy milk")},
			wantMsg: "Missing required fields: title and user_id.",
		},
		{
			name:    "blank title",
			req:     CreateTaskRequest{Title: ptr("   "), UserID: ptr("u1")},
			wantMsg: "Title cannot be empty.",
		},
		{
			name:    "bad priority",
			req:     CreateTaskRequest{Title: ptr("Buy milk"), UserID: ptr("u1"), Priority: ptr(Priority("urgent"))},
			wantMsg: "Invalid priority value. Must be one of: low, medium, high.",
		},
		{
			name:    "bad status",
			req:     CreateTaskRequest{Title: ptr("Buy milk"), UserID: ptr("u1"), Status: ptr(Status("done"))},
			wantMsg: "Invalid status value. Must be one of: not_started, wip, completed.",
		},
		{
			name: "valid with defaults",
			req:  CreateTaskRequest{Title: ptr("Buy milk"), UserID: ptr("u1")},
		},
		{
			name: "empty enums are absent",
			req:  CreateTaskRequest{Title: ptr("Buy milk"), UserID: ptr("u1"), Priority: ptr(Priority("")), Status: ptr(Status(""))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("want ValidationError, got %v", err)
			}
			if ve.Message != tt.wantMsg {
				t.Errorf("want %q, got %q", tt.wantMsg, ve.Message)
			}
		})
	}
}

func TestCreateTaskRequest_Normalize(t *testing.T) {
	req := CreateTaskRequest{
		Title:       ptr("  Buy milk  "),
		Description: ptr("  two litres "),
		UserID:      ptr("u1"),
		Priority:    ptr(Priority("")),
	}
	nt := req.Normalize()
	if nt.Title != "Buy milk" || nt.Description != "two litres" {
		t.Fatalf("text not trimmed: %+v", nt)
	}
	if nt.Priority != PriorityMedium || nt.Status != StatusNotStarted {
		t.Fatalf("defaults not applied: %+v", nt)
	}
	if nt.UserID != "u1" {
		t.Fatalf("user id lost: %+v", nt)
	}
}

func TestTaskPatch_Validate(t *testing.T) {
	if err := (TaskPatch{}).Validate(); err == nil {
		t.Error("empty patch must be rejected")
	}
	if err := (TaskPatch{Title: ptr(" ")}).Validate(); err == nil {
		t.Error("blank title must be rejected")
	}
	if err := (TaskPatch{Status: ptr(Status("done"))}).Validate(); err == nil {
		t.Error("unknown status must be rejected")
	}
	if err := (TaskPatch{Priority: ptr(PriorityHigh)}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStatus_Transitions(t *testing.T) {
	for _, s := range AllowedStatuses {
		next := s.Transitions()
		if len(next) != 2 {
			t.Fatalf("%s: want 2 transitions, got %v", s, next)
		}
		for _, n := range next {
			if n == s {
				t.Errorf("%s offers a move to itself", s)
			}
		}
	}
	if Status("bogus").Transitions() != nil {
		t.Error("unknown status must have no transitions")
	}
}

func TestTask_Completed(t *testing.T) {
	if (Task{Status: StatusWIP}).Completed() {
		t.Error("wip task reported as completed")
	}
	if !(Task{Status: StatusCompleted}).Completed() {
		t.Error("completed task not reported as completed")
	}
}
