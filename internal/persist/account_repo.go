package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrAccountNotFound is returned by AccountRepo.LoadByUsername when no row
// matches.
var ErrAccountNotFound = errors.New("persist: account not found")

// AccountRow mirrors the columns of the accounts table spec.md §6
// names as relevant to the core.
type AccountRow struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Banned       bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// AccountRepo is the pgx-backed account persistence layer. Grounded on
// the teacher's internal/persist/account_repo.go, trimmed to the
// uuid/email/password-hash shape the accountsvc/Argon2 flow needs.
type AccountRepo struct {
	db *DB
}

// NewAccountRepo wraps db.
func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// LoadByUsername fetches an account row by username.
func (r *AccountRepo) LoadByUsername(ctx context.Context, username string) (*AccountRow, error) {
	row := &AccountRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, banned, created_at, last_login_at
		 FROM accounts WHERE username = $1`, username,
	).Scan(&row.ID, &row.Username, &row.Email, &row.PasswordHash, &row.Banned, &row.CreatedAt, &row.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persist: load account by username: %w", err)
	}
	return row, nil
}

// Create inserts a new account and returns its generated id.
func (r *AccountRepo) Create(ctx context.Context, username, email, passwordHash string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO accounts (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		username, email, passwordHash,
	).Scan(&id)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("persist: create account: %w", err)
	}
	return id, nil
}

// TouchLastLogin updates last_login_at to now.
func (r *AccountRepo) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE accounts SET last_login_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("persist: touch last login: %w", err)
	}
	return nil
}
