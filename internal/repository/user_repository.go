package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sciclub-api/internal/models"
)

const userColumns = `id, name, email, password_hash, email_verified_at, created_at, updated_at`

// UserRepository provides database access for admin accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// EmailTaken reports whether another user already owns email.
func (r *UserRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND id <> $2)`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check email uniqueness: %w", err)
	}
	return taken, nil
}

// UpdateEmail sets a new email and marks it verified.
func (r *UserRepository) UpdateEmail(ctx context.Context, id, email string, verifiedAt time.Time) error {
	const query = `UPDATE users SET email = $2, email_verified_at = $3, updated_at = $3 WHERE id = $1`
	return r.execOne(ctx, "update email", query, id, email, verifiedAt)
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	return r.execOne(ctx, "update password", query, id, passwordHash, updatedAt)
}

// UpdateName changes the display name.
func (r *UserRepository) UpdateName(ctx context.Context, id, name string, updatedAt time.Time) error {
	const query = `UPDATE users SET name = $2, updated_at = $3 WHERE id = $1`
	return r.execOne(ctx, "update name", query, id, name, updatedAt)
}

// Create inserts a new admin user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, name, email, password_hash, email_verified_at, created_at, updated_at) VALUES (:id, :name, :email, :password_hash, :email_verified_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
