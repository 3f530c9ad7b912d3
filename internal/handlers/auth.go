package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/chepyr/go-task-board/internal/db"
	"github.com/chepyr/go-task-board/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

type credentials struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type SignInResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   int64        `json:"expires_at"`
	User        *models.User `json:"user"`
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	input, ok := h.readCredentials(w, r, "sign up")
	if !ok {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger().Error("hash password", "error", err)
		sendError(w, CodeInternal, "Cannot hash password", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout())
	defer cancel()

	if err := h.UserRepo.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrConflict) {
			sendError(w, CodeConflict, "User already registered", http.StatusConflict)
			return
		}
		h.logger().Error("save user", "error", err)
		sendError(w, CodeInternal, "Cannot save user", http.StatusInternalServerError)
		return
	}

	h.logger().Info("user registered", "user_id", user.ID)
	sendJSON(w, user, http.StatusCreated)
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	input, ok := h.readCredentials(w, r, "sign in")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout())
	defer cancel()

	user, err := h.UserRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			h.logger().Error("get user by email", "error", err)
		}
		sendError(w, CodeUnauthorized, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		sendError(w, CodeUnauthorized, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := h.Tokens.Issue(user)
	if err != nil {
		h.logger().Error("issue token", "error", err)
		sendError(w, CodeInternal, "Cannot create token", http.StatusInternalServerError)
		return
	}

	h.logger().Info("user signed in", "user_id", user.ID)
	sendJSON(w, SignInResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt.Unix(),
		User:        user,
	}, http.StatusOK)
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, CodeInvalid, "Use POST method", http.StatusMethodNotAllowed)
		return
	}
	claims := claimsFromContext(r.Context())
	if claims == nil {
		sendError(w, CodeUnauthorized, "Sign out requires a user token", http.StatusUnauthorized)
		return
	}
	h.Tokens.Revoke(claims)
	h.logger().Info("user signed out", "user_id", claims.Subject)
	w.WriteHeader(http.StatusNoContent)
}

// readCredentials handles the shared method, rate limit and body checks of
// sign up and sign in. It writes the error response itself.
func (h *Handler) readCredentials(w http.ResponseWriter, r *http.Request, action string) (credentials, bool) {
	var input credentials
	if r.Method != http.MethodPost {
		sendError(w, CodeInvalid, "Use POST method", http.StatusMethodNotAllowed)
		return input, false
	}

	ip := clientIP(r)
	if h.RateLimiter != nil && !h.RateLimiter.Allow(ip) {
		h.logger().Warn("rate limit exceeded", "ip", ip, "action", action)
		sendError(w, CodeRateLimited, "Too many attempts. Please try again later.", http.StatusTooManyRequests)
		return input, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, CodeInvalid, "Bad JSON", http.StatusBadRequest)
		return input, false
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if err := validate.Struct(input); err != nil {
		sendError(w, CodeInvalid, credentialsMessage(err), http.StatusBadRequest)
		return input, false
	}
	return input, true
}

func credentialsMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid email or password"
	}
	switch verrs[0].Field() {
	case "Email":
		return "Invalid email"
	case "Password":
		return "Password must be between 6 and 72 characters long"
	}
	return "Invalid email or password"
}
