// Package gateway implements the create-task endpoint: it validates a
// creation request and forwards it once to the task store.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/chepyr/go-task-board/internal/models"
	"github.com/chepyr/go-task-board/internal/storeclient"
)

const Path = "/functions/create-task"

const (
	msgMethodNotAllowed = "Method Not Allowed. Only POST requests are supported."
	msgMissingConfig    = "Server configuration error: store credentials missing."
	msgUnauthorized     = "Missing or invalid Authorization header."
	msgInvalidToken     = "Invalid or expired access token."
	msgForbidden        = "You can only create tasks for your own account."
	msgInvalidJSON      = "Invalid JSON in request body."
	msgStoreNotFound    = "Task store not found. Please ensure the store URL and database schema are set up correctly."
	msgConflict         = "A task with this information already exists."
	msgCreateFailed     = "Failed to create task. Please try again."
)

// Inserter creates a task as the user the access token belongs to.
type Inserter interface {
	InsertTask(ctx context.Context, token string, req models.CreateTaskRequest) (models.Task, error)
}

// Connector opens a store connection for a single request.
type Connector func(storeURL, key string) (Inserter, error)

func StoreConnector(storeURL, key string) (Inserter, error) {
	return storeclient.New(storeURL, key)
}

type Config struct {
	StoreURL string
	StoreKey string
	Timeout  time.Duration
}

type Handler struct {
	cfg     Config
	connect Connector
	log     *slog.Logger
}

func NewHandler(cfg Config, connect Connector, log *slog.Logger) *Handler {
	if connect == nil {
		connect = StoreConnector
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{cfg: cfg, connect: connect, log: log}
}

func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(Path, h)
	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		sendError(w, msgMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}
	if h.cfg.StoreURL == "" || h.cfg.StoreKey == "" {
		h.log.Error("store credentials are not configured")
		sendError(w, msgMissingConfig, http.StatusInternalServerError)
		return
	}

	token, ok := bearerToken(r)
	if !ok {
		sendError(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req models.CreateTaskRequest
	if err := decodeSingle(r.Body, &req); err != nil {
		sendError(w, msgInvalidJSON, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	nt := req.Normalize()
	store, err := h.connect(h.cfg.StoreURL, h.cfg.StoreKey)
	if err != nil {
		h.log.Error("connect to store", "error", err)
		sendError(w, msgCreateFailed, http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.Timeout)
	defer cancel()

	task, err := store.InsertTask(ctx, token, models.CreateTaskRequest{
		Title:       &nt.Title,
		Description: &nt.Description,
		Priority:    &nt.Priority,
		Status:      &nt.Status,
		UserID:      &nt.UserID,
	})
	if err != nil {
		msg, status := storeErrorResponse(err)
		h.log.Error("insert task", "user_id", nt.UserID, "status", status, "error", err)
		sendError(w, msg, status)
		return
	}

	h.log.Info("task created", "user_id", task.UserID, "task_id", task.ID)
	sendJSON(w, task, http.StatusCreated)
}

// bearerToken returns the caller's access token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// decodeSingle decodes exactly one JSON value; anything after it is an error.
func decodeSingle(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

func storeErrorResponse(err error) (string, int) {
	switch {
	case errors.Is(err, storeclient.ErrInvalidAPIKey):
		return msgCreateFailed, http.StatusInternalServerError
	case errors.Is(err, storeclient.ErrForbidden):
		return msgForbidden, http.StatusForbidden
	case errors.Is(err, storeclient.ErrUnauthorized):
		return msgInvalidToken, http.StatusUnauthorized
	case errors.Is(err, storeclient.ErrNotFound):
		return msgStoreNotFound, http.StatusNotFound
	case errors.Is(err, storeclient.ErrConflict):
		return msgConflict, http.StatusConflict
	default:
		return msgCreateFailed, http.StatusInternalServerError
	}
}

func setCORSHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func sendError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, errorResponse{Error: message}, status)
}

func sendJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
