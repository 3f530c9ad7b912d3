package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/chepyr/go-task-board/internal/models"
)

/*
handles routes:
- GET /tasks - list the caller's tasks, newest first
- POST /tasks - create a task for the caller, or for body.user_id when
  called with the service key
*/
func (h *Handler) HandleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listTasks(w, r)
	case http.MethodPost:
		h.createTask(w, r)
	default:
		sendError(w, CodeInvalid, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	if userID == "" {
		sendError(w, CodeUnauthorized, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout())
	defer cancel()

	tasks, err := h.TaskRepo.ListByUserID(ctx, userID)
	if err != nil {
		h.writeStoreError(w, "list tasks", err)
		return
	}
	sendJSON(w, tasks, http.StatusOK)
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	service := isServiceCall(r.Context())
	if userID == "" && !service {
		sendError(w, CodeUnauthorized, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if !isJSONContentType(r) {
		sendError(w, CodeInvalid, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	var input models.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, CodeInvalid, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if !service {
		if input.UserID != nil && *input.UserID != "" && *input.UserID != userID {
			sendError(w, CodeForbidden, "Cannot create tasks for another user", http.StatusForbidden)
			return
		}
		input.UserID = &userID
	}
	if err := input.Validate(); err != nil {
		h.writeStoreError(w, "create task", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout())
	defer cancel()

	task, err := h.TaskRepo.Create(ctx, input.Normalize())
	if err != nil {
		h.writeStoreError(w, "create task", err)
		return
	}
	h.logger().Info("task created", "task_id", task.ID, "user_id", task.UserID, "service", service)
	w.Header().Set("Location", "/tasks/"+task.ID)
	sendJSON(w, task, http.StatusCreated)
}

/*
routes:
- GET /tasks/{id}
- PATCH /tasks/{id}
- DELETE /tasks/{id}
*/
func (h *Handler) HandleTaskByID(w http.ResponseWriter, r *http.Request) {
	taskID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/tasks/"), "/")
	if taskID == "" || strings.Contains(taskID, "/") {
		sendError(w, CodeInvalid, "task id is required", http.StatusBadRequest)
		return
	}
	userID := UserIDFromContext(r.Context())
	if userID == "" {
		sendError(w, CodeUnauthorized, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getTaskByID(w, r, userID, taskID)
	case http.MethodPatch:
		h.updateTaskByID(w, r, userID, taskID)
	case http.MethodDelete:
		h.deleteTaskByID(w, r, userID, taskID)
	default:
		sendError(w, CodeInvalid, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) getTaskByID(w http.ResponseWriter, r *http.Request, userID, taskID string) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout())
	defer cancel()

	task, err := h.TaskRepo.GetByID(ctx, userID, taskID)
	if err != nil {
		h.writeStoreError(w, "get task", err)
		return
	}
	sendJSON(w, task, http.StatusOK)
}

func (h *Handler) updateTaskByID(w http.ResponseWriter, r *http.Request, userID, taskID string) {
	if !isJSONContentType(r) {
		sendError(w, CodeInvalid, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	// identity, ownership and timestamps are not patchable
	var patch models.TaskPatch
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		sendError(w, CodeInvalid, "Invalid JSON body: only title, description, priority and status can be changed", http.StatusBadRequest)
		return
	}
	if err := patch.Validate(); err != nil {
		h.writeStoreError(w, "update task", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout())
	defer cancel()

	task, err := h.TaskRepo.Update(ctx, userID, taskID, patch.Normalize())
	if err != nil {
		h.writeStoreError(w, "update task", err)
		return
	}
	sendJSON(w, task, http.StatusOK)
}

func (h *Handler) deleteTaskByID(w http.ResponseWriter, r *http.Request, userID, taskID string) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout())
	defer cancel()

	if err := h.TaskRepo.Delete(ctx, userID, taskID); err != nil {
		h.writeStoreError(w, "delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
