package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"task-manager/internal/errs"
	"task-manager/internal/models"
)

const accountColumns = `id, name, email, password_hash, joined_at, created_at, updated_at`

// AccountRepo implements repository.AccountStore using PostgreSQL.
type AccountRepo struct{ db *sql.DB }

// NewAccountRepo constructs an account repository.
func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

// Create inserts a new account row.
func (r *AccountRepo) Create(ctx context.Context, a *models.Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.JoinedAt, a.CreatedAt, a.UpdatedAt = now, now, now

	const q = `
INSERT INTO accounts (id, name, email, password_hash, joined_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, q, a.ID, a.Name, a.Email, a.PasswordHash, a.JoinedAt, a.CreatedAt, a.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: email already registered", errs.ErrConflict)
	}
	if err != nil {
		return storeErr("create account", err)
	}
	return nil
}

// GetByID selects an account by ID.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.getOne(ctx, q, id)
}

// GetByEmail selects an account by email, case-insensitively.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = $1`
	return r.getOne(ctx, q, models.NormalizeEmail(email))
}

func (r *AccountRepo) getOne(ctx context.Context, q string, arg any) (*models.Account, error) {
	var a models.Account
	err := r.db.QueryRowContext(ctx, q, arg).
		Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.JoinedAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account", errs.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("get account", err)
	}
	return &a, nil
}
