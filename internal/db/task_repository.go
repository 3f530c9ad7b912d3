package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chepyr/go-task-board/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// defines methods for task db operations
type TaskRepositoryInterface interface {
	ListByUserID(ctx context.Context, userID string) ([]models.Task, error)
	GetByID(ctx context.Context, userID, id string) (models.Task, error)
	Create(ctx context.Context, task models.NewTask) (models.Task, error)
	Update(ctx context.Context, userID, id string, patch models.TaskPatch) (models.Task, error)
	Delete(ctx context.Context, userID, id string) error
}

type TaskRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db, now: time.Now}
}

const taskColumns = `id, user_id, title, description, priority, status, created_at, updated_at`

func (r *TaskRepository) ListByUserID(ctx context.Context, userID string) ([]models.Task, error) {
	query := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ? ORDER BY created_at DESC`)

	tasks := []models.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, userID); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// GetByID only finds tasks owned by userID.
func (r *TaskRepository) GetByID(ctx context.Context, userID, id string) (models.Task, error) {
	query := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND user_id = ?`)

	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func (r *TaskRepository) Create(ctx context.Context, nt models.NewTask) (models.Task, error) {
	if nt.UserID == "" || strings.TrimSpace(nt.Title) == "" {
		return models.Task{}, ErrInvalid
	}

	now := r.now().UTC()
	task := models.Task{
		ID:          uuid.NewString(),
		UserID:      nt.UserID,
		Title:       nt.Title,
		Description: nt.Description,
		Priority:    nt.Priority,
		Status:      nt.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := r.db.Rebind(`INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.UserID, task.Title, task.Description,
		task.Priority, task.Status, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", classify(err))
	}
	return r.GetByID(ctx, task.UserID, task.ID)
}

// Update writes the non-nil patch fields and advances updated_at.
func (r *TaskRepository) Update(ctx context.Context, userID, id string, patch models.TaskPatch) (models.Task, error) {
	if patch.Empty() {
		return models.Task{}, ErrInvalid
	}

	var (
		sets []string
		args []any
	)
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *patch.Priority)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, r.now().UTC(), id, userID)

	query := r.db.Rebind(`UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND user_id = ?`)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", classify(err))
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return models.Task{}, ErrNotFound
	}
	return r.GetByID(ctx, userID, id)
}

func (r *TaskRepository) Delete(ctx context.Context, userID, id string) error {
	query := r.db.Rebind(`DELETE FROM tasks WHERE id = ? AND user_id = ?`)

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return ErrNotFound
	}
	return nil
}
