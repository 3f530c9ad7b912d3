package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chepyr/go-task-board/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// every pooled connection to :memory: would get its own empty database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func newUser(email string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "password",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserRepository_Create(t *testing.T) {
	db := setupTestDB(t)

	repo := NewUserRepository(db)
	user := newUser("test_1@example.com")

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	// verify user was created
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", user.Email).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query user: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 user, got %d", count)
	}
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	if err := repo.Create(context.Background(), newUser("dup@example.com")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := repo.Create(context.Background(), newUser("dup@example.com"))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", err)
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db := setupTestDB(t)

	repo := NewUserRepository(db)
	user := newUser("test_1@example.com")
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}

	fetched, err := repo.GetByEmail(context.Background(), user.Email)
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if fetched.ID != user.ID {
		t.Errorf("Expected ID %v, got %v", user.ID, fetched.ID)
	}
	if fetched.PasswordHash != user.PasswordHash {
		t.Errorf("Expected password hash %v, got %v", user.PasswordHash, fetched.PasswordHash)
	}

	byID, err := repo.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID.Email != user.Email {
		t.Errorf("Expected email %v, got %v", user.Email, byID.Email)
	}
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	db := setupTestDB(t)

	repo := NewUserRepository(db)
	_, err := repo.GetByEmail(context.Background(), "nonexistent@example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
