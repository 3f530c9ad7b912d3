package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSignIn(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           string
		mockRepo       *MockUserRepository
		limit          int
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Success",
			method:         http.MethodPost,
			body:           `{"email": "test@example.com", "password": "strongpass"}`,
			mockRepo:       setupMockUser("test@example.com", "strongpass"),
			limit:          5,
			expectedStatus: http.StatusOK,
			expectedBody:   `"token_type":"bearer"`,
		},
		{
			name:           "Email is case-insensitive",
			method:         http.MethodPost,
			body:           `{"email": " Test@Example.com ", "password": "strongpass"}`,
			mockRepo:       setupMockUser("test@example.com", "strongpass"),
			limit:          5,
			expectedStatus: http.StatusOK,
			expectedBody:   `"access_token"`,
		},
		{
			name:           "Invalid method",
			method:         http.MethodGet,
			mockRepo:       NewMockUserRepository(),
			limit:          5,
			expectedStatus: http.StatusMethodNotAllowed,
			expectedBody:   `"error":"Use POST method"`,
		},
		{
			name:           "Invalid JSON",
			method:         http.MethodPost,
			body:           `{"email": "test@example.com", "password": }`,
			mockRepo:       NewMockUserRepository(),
			limit:          5,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"Bad JSON"`,
		},
		{
			name:           "Invalid email",
			method:         http.MethodPost,
			body:           `{"email": "invalid", "password": "strongpass"}`,
			mockRepo:       NewMockUserRepository(),
			limit:          5,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"Invalid email"`,
		},
		{
			name:           "Password too short",
			method:         http.MethodPost,
			body:           `{"email": "test@example.com", "password": "abc"}`,
			mockRepo:       NewMockUserRepository(),
			limit:          5,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"Password must be between 6 and 72 characters long"`,
		},
		{
			name:           "Unknown user",
			method:         http.MethodPost,
			body:           `{"email": "nobody@example.com", "password": "strongpass"}`,
			mockRepo:       NewMockUserRepository(),
			limit:          5,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"Invalid email or password"`,
		},
		{
			name:           "Wrong password",
			method:         http.MethodPost,
			body:           `{"email": "test@example.com", "password": "wrongpass"}`,
			mockRepo:       setupMockUser("test@example.com", "strongpass"),
			limit:          5,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"code":"unauthorized"`,
		},
		{
			name:           "Rate limit exceeded",
			method:         http.MethodPost,
			body:           `{"email": "test@example.com", "password": "strongpass"}`,
			mockRepo:       setupMockUser("test@example.com", "strongpass"),
			limit:          0,
			expectedStatus: http.StatusTooManyRequests,
			expectedBody:   `"code":"rate_limited"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(tt.limit, time.Minute)
			defer rl.Stop()
			if tt.limit == 0 {
				// the first attempt of a key is always let through
				rl.Allow("192.0.2.1")
			}
			h := &Handler{
				UserRepo:    tt.mockRepo,
				Tokens:      NewTokenIssuer(testSecret, time.Hour),
				RateLimiter: rl,
			}

			req := httptest.NewRequest(tt.method, "/auth/signin", bytes.NewBufferString(tt.body))
			req.RemoteAddr = "192.0.2.1:40000"
			rec := httptest.NewRecorder()

			h.SignIn(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("want %d, got %d body=%s", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.expectedBody) {
				t.Errorf("body %s does not contain %s", rec.Body.String(), tt.expectedBody)
			}
		})
	}
}

func failingUserRepo(err error) *MockUserRepository {
	repo := NewMockUserRepository()
	repo.createErr = err
	return repo
}

func TestSignUp(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockRepo       *MockUserRepository
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Success",
			body:           `{"email": "new@example.com", "password": "strongpass"}`,
			mockRepo:       NewMockUserRepository(),
			expectedStatus: http.StatusCreated,
			expectedBody:   `"email":"new@example.com"`,
		},
		{
			name:           "Duplicate email",
			body:           `{"email": "taken@example.com", "password": "strongpass"}`,
			mockRepo:       setupMockUser("taken@example.com", "whatever"),
			expectedStatus: http.StatusConflict,
			expectedBody:   `"code":"conflict"`,
		},
		{
			name:           "Missing password",
			body:           `{"email": "new@example.com"}`,
			mockRepo:       NewMockUserRepository(),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"code":"invalid"`,
		},
		{
			name:           "Repository failure",
			body:           `{"email": "new@example.com", "password": "strongpass"}`,
			mockRepo:       failingUserRepo(errors.New("disk full")),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"Cannot save user"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Handler{UserRepo: tt.mockRepo}

			req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			h.SignUp(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("want %d, got %d body=%s", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.expectedBody) {
				t.Errorf("body %s does not contain %s", rec.Body.String(), tt.expectedBody)
			}
			if strings.Contains(rec.Body.String(), "password") {
				t.Errorf("password hash leaked: %s", rec.Body.String())
			}
		})
	}
}

// checks sign up, sign in and sign out through the router; the token stops working after sign out
func TestAuthFlow_SignOutRevokesToken(t *testing.T) {
	h := &Handler{
		UserRepo: NewMockUserRepository(),
		Tokens:   NewTokenIssuer(testSecret, time.Hour),
	}
	mux := h.Routes()

	body := `{"email": "flow@example.com", "password": "strongpass"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: want 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/signin", bytes.NewBufferString(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("signin: want 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var session SignInResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode signin: %v", err)
	}
	if session.User == nil || session.User.Email != "flow@example.com" {
		t.Fatalf("unexpected user in session: %+v", session.User)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("signout: want 204, got %d body=%s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("reuse after signout: want 401, got %d body=%s", rec.Code, rec.Body.String())
	}
}
