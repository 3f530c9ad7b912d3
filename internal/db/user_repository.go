package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chepyr/go-task-board/internal/models"
	"github.com/jmoiron/sqlx"
)

// defines methods for user db operations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := r.db.Rebind(`INSERT INTO users (id, email, password_hash, created_at, updated_at)
	 VALUES (?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(
		ctx, query, user.ID, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", classify(err))
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*models.User, error) {
	query := r.db.Rebind(`SELECT id, email, password_hash, created_at, updated_at FROM users WHERE ` + column + ` = ?`)

	user := &models.User{}
	if err := r.db.GetContext(ctx, user, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	return user, nil
}
