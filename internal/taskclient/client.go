// Package taskclient keeps a signed-in user's tasks in memory and keeps that
// cache in step with the task store.
//
// Creation goes through the gateway; updates and deletes go to the store
// directly. Remote calls are made without holding the cache lock, so two
// overlapping mutations of the same task resolve as last write wins in the
// cache until the next List.
package taskclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/chepyr/go-task-board/internal/models"
)

var (
	ErrNotAuthenticated = errors.New("not signed in")
	ErrInvalidDraft     = errors.New("invalid task")
)

// Session is the acting user. It is passed to every operation instead of
// being read from global state.
type Session struct {
	User        models.User `json:"user"`
	AccessToken string      `json:"access_token"`
}

type Store interface {
	ListTasks(ctx context.Context, token string) ([]models.Task, error)
	UpdateTask(ctx context.Context, token, id string, patch models.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, token, id string) error
}

type Creator interface {
	CreateTask(ctx context.Context, token string, req models.CreateTaskRequest) (models.Task, error)
}

// Draft is a task before creation. Zero values take the store defaults.
type Draft struct {
	Title       string
	Description string
	Priority    models.Priority
	Status      models.Status
}

type Client struct {
	store   Store
	creator Creator
	log     *slog.Logger

	mu       sync.RWMutex
	tasks    []models.Task
	inflight int
}

func New(store Store, creator Creator, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{store: store, creator: creator, log: log}
}

// List replaces the cache with the user's tasks, newest first. On failure
// the cache keeps its previous contents.
func (c *Client) List(ctx context.Context, s Session) error {
	if s.User.ID == "" {
		return ErrNotAuthenticated
	}

	c.setLoading(true)
	defer c.setLoading(false)

	tasks, err := c.store.ListTasks(ctx, s.AccessToken)
	if err != nil {
		c.log.Error("fetch tasks", "user_id", s.User.ID, "error", err)
		return fmt.Errorf("list tasks: %w", err)
	}

	fresh := make([]models.Task, len(tasks))
	copy(fresh, tasks)

	c.mu.Lock()
	c.tasks = fresh
	c.mu.Unlock()
	return nil
}

// Create sends the draft through the gateway and puts the stored task at
// the front of the cache.
func (c *Client) Create(ctx context.Context, s Session, d Draft) (models.Task, error) {
	if s.User.ID == "" {
		return models.Task{}, ErrNotAuthenticated
	}
	req, err := d.request(s.User.ID)
	if err != nil {
		return models.Task{}, err
	}

	task, err := c.creator.CreateTask(ctx, s.AccessToken, req)
	if err != nil {
		c.log.Error("create task", "user_id", s.User.ID, "error", err)
		return models.Task{}, err
	}

	c.mu.Lock()
	c.tasks = append([]models.Task{task}, c.tasks...)
	c.mu.Unlock()
	return task, nil
}

// Update applies patch in the store and replaces the cached task in place.
func (c *Client) Update(ctx context.Context, s Session, id string, patch models.TaskPatch) (models.Task, error) {
	if s.User.ID == "" {
		return models.Task{}, ErrNotAuthenticated
	}
	if err := patch.Validate(); err != nil {
		return models.Task{}, fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}

	task, err := c.store.UpdateTask(ctx, s.AccessToken, id, patch.Normalize())
	if err != nil {
		c.log.Error("update task", "task_id", id, "error", err)
		return models.Task{}, err
	}

	c.mu.Lock()
	for i := range c.tasks {
		if c.tasks[i].ID == task.ID {
			c.tasks[i] = task
			break
		}
	}
	c.mu.Unlock()
	return task, nil
}

func (c *Client) Delete(ctx context.Context, s Session, id string) error {
	if s.User.ID == "" {
		return ErrNotAuthenticated
	}
	if err := c.store.DeleteTask(ctx, s.AccessToken, id); err != nil {
		c.log.Error("delete task", "task_id", id, "error", err)
		return err
	}

	c.mu.Lock()
	kept := make([]models.Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	c.tasks = kept
	c.mu.Unlock()
	return nil
}

func (c *Client) SetStatus(ctx context.Context, s Session, id string, status models.Status) (models.Task, error) {
	return c.Update(ctx, s, id, models.TaskPatch{Status: &status})
}

// ToggleCompleted maps the to-do list checkbox onto the status field.
func (c *Client) ToggleCompleted(ctx context.Context, s Session, id string, completed bool) (models.Task, error) {
	status := models.StatusNotStarted
	if completed {
		status = models.StatusCompleted
	}
	return c.SetStatus(ctx, s, id, status)
}

func (c *Client) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inflight > 0
}

func (c *Client) setLoading(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.inflight++
	} else {
		c.inflight--
	}
}

func (d Draft) request(userID string) (models.CreateTaskRequest, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return models.CreateTaskRequest{}, fmt.Errorf("%w: title is required", ErrInvalidDraft)
	}
	if d.Priority != "" && !d.Priority.Valid() {
		return models.CreateTaskRequest{}, fmt.Errorf("%w: priority must be one of %s", ErrInvalidDraft, models.PriorityList())
	}
	if d.Status != "" && !d.Status.Valid() {
		return models.CreateTaskRequest{}, fmt.Errorf("%w: status must be one of %s", ErrInvalidDraft, models.StatusList())
	}

	status := d.Status
	if status == "" {
		status = models.StatusNotStarted
	}
	req := models.CreateTaskRequest{
		Title:       &title,
		Description: &d.Description,
		Status:      &status,
		UserID:      &userID,
	}
	if d.Priority != "" {
		req.Priority = &d.Priority
	}
	return req, nil
}
