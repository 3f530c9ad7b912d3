package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/chepyr/go-task-board/internal/db"
	"github.com/chepyr/go-task-board/internal/models"
)

const (
	CodeInvalid      = "invalid"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeRateLimited  = "rate_limited"
	CodeInternal     = "internal"

	// a wrong service key is the caller's misconfiguration, not the user's fault
	CodeInvalidAPIKey = "invalid_api_key"
)

type Handler struct {
	TaskRepo    db.TaskRepositoryInterface
	UserRepo    db.UserRepositoryInterface
	Tokens      *TokenIssuer
	RateLimiter *RateLimiter
	ServiceKey  string
	Timeout     time.Duration
	Log         *slog.Logger
}

// Routes registers the store API on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/signup", h.SignUp)
	mux.HandleFunc("/auth/signin", h.SignIn)
	mux.HandleFunc("/auth/signout", h.AuthMiddleware(h.SignOut))
	mux.HandleFunc("/tasks", h.AuthMiddleware(h.HandleTasks))
	mux.HandleFunc("/tasks/", h.AuthMiddleware(h.HandleTaskByID))
	return mux
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func sendError(w http.ResponseWriter, code, message string, status int) {
	sendJSON(w, errorResponse{Code: code, Error: message}, status)
}

func sendJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeStoreError maps repository and validation errors to responses.
func (h *Handler) writeStoreError(w http.ResponseWriter, op string, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		sendError(w, CodeInvalid, ve.Message, http.StatusBadRequest)
	case errors.Is(err, db.ErrNotFound):
		sendError(w, CodeNotFound, "Task not found", http.StatusNotFound)
	case errors.Is(err, db.ErrConflict):
		sendError(w, CodeConflict, "Task already exists", http.StatusConflict)
	case errors.Is(err, db.ErrInvalid):
		sendError(w, CodeInvalid, "Invalid task fields", http.StatusBadRequest)
	default:
		h.logger().Error(op+" failed", "error", err)
		sendError(w, CodeInternal, "Internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) logger() *slog.Logger {
	if h.Log == nil {
		return slog.Default()
	}
	return h.Log
}

func (h *Handler) timeout() time.Duration {
	if h.Timeout <= 0 {
		return 5 * time.Second
	}
	return h.Timeout
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	return err == nil && mediaType == "application/json"
}
