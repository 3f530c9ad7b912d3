// Package storeclient talks to the task store's REST API.
package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chepyr/go-task-board/internal/models"
)

var (
	ErrNotFound     = errors.New("store: not found")
	ErrConflict     = errors.New("store: conflict")
	ErrUnauthorized = errors.New("store: unauthorized")
	ErrForbidden    = errors.New("store: forbidden")
	ErrInvalid      = errors.New("store: invalid request")

	// ErrInvalidAPIKey is a rejected service key. It also matches ErrUnauthorized.
	ErrInvalidAPIKey = errors.New("store: invalid api key")
)

const codeInvalidAPIKey = "invalid_api_key"

// Error is a non-2xx answer from the store.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("store returned %d", e.StatusCode)
	}
	return fmt.Sprintf("store returned %d: %s", e.StatusCode, e.Message)
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrInvalidAPIKey:
		return e.StatusCode == http.StatusUnauthorized && e.Code == codeInvalidAPIKey
	case ErrInvalid:
		return e.StatusCode == http.StatusBadRequest
	}
	return false
}

type Session struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   int64        `json:"expires_at"`
	User        *models.User `json:"user"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New returns a client for the store at baseURL. apiKey is only needed for
// InsertTask and may be empty for user-token clients.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid store url %q", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) ListTasks(ctx context.Context, token string) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", bearer(token), nil, &tasks); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, token, id string) (models.Task, error) {
	var task models.Task
	if err := c.do(ctx, http.MethodGet, taskPath(id), bearer(token), nil, &task); err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// InsertTask creates a task. With a token the store scopes the row to the
// token's user and refuses a different req.UserID; without one the service
// key creates it on behalf of req.UserID.
func (c *Client) InsertTask(ctx context.Context, token string, req models.CreateTaskRequest) (models.Task, error) {
	if token == "" && c.apiKey == "" {
		return models.Task{}, fmt.Errorf("insert task: %w", ErrUnauthorized)
	}
	auth := func(r *http.Request) {
		if c.apiKey != "" {
			r.Header.Set("apikey", c.apiKey)
		}
		if token != "" {
			bearer(token)(r)
		}
	}
	var task models.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", auth, req, &task); err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

func (c *Client) UpdateTask(ctx context.Context, token, id string, patch models.TaskPatch) (models.Task, error) {
	var task models.Task
	if err := c.do(ctx, http.MethodPatch, taskPath(id), bearer(token), patch, &task); err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

func (c *Client) DeleteTask(ctx context.Context, token, id string) error {
	if err := c.do(ctx, http.MethodDelete, taskPath(id), bearer(token), nil, nil); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/auth/signup", nil, credentials{email, password}, &user); err != nil {
		return models.User{}, fmt.Errorf("sign up: %w", err)
	}
	return user, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/auth/signin", nil, credentials{email, password}, &s); err != nil {
		return Session{}, fmt.Errorf("sign in: %w", err)
	}
	return s, nil
}

func (c *Client) SignOut(ctx context.Context, token string) error {
	if err := c.do(ctx, http.MethodPost, "/auth/signout", bearer(token), nil, nil); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func (c *Client) do(ctx context.Context, method, path string, auth func(*http.Request), in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if auth != nil {
		auth(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	e := &Error{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Code  string `json:"code"`
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		e.Code, e.Message = body.Code, body.Error
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(raw))
	}
	return e
}
