package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/roster/internal/platform/db"
)

const pgUniqueViolation = "23505"

const pgCreateUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE
)`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the users table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, pgCreateUsersTable); err != nil {
		return fmt.Errorf("users: create table: %w", err)
	}
	return nil
}

// WithTx runs fn inside one transaction on a pooled connection.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, Session) error) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgSession{tx: tx})
	})
	if err != nil && isUniqueViolation(err) && !errors.Is(err, ErrDuplicateEmail) {
		return &duplicateError{cause: err}
	}
	return err
}

type pgSession struct {
	tx pgx.Tx
}

func (s *pgSession) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.tx.Query(ctx, `SELECT id, first_name, last_name, email FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email); err != nil {
			return nil, fmt.Errorf("users: scan: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return users, nil
}

func (s *pgSession) GetUser(ctx context.Context, id int64) (User, error) {
	var user User
	err := s.tx.QueryRow(ctx, `SELECT id, first_name, last_name, email FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("users: get: %w", err)
	}
	return user, nil
}

func (s *pgSession) InsertUser(ctx context.Context, in CreateInput) (User, error) {
	var user User
	err := s.tx.QueryRow(ctx, `
INSERT INTO users (first_name, last_name, email)
VALUES ($1, $2, $3)
RETURNING id, first_name, last_name, email`,
		in.FirstName, in.LastName, in.Email,
	).Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email)
	if err != nil {
		return User{}, mapPGError(err, "insert")
	}
	return user, nil
}

func (s *pgSession) UpdateUser(ctx context.Context, user User) (User, error) {
	var updated User
	err := s.tx.QueryRow(ctx, `
UPDATE users SET first_name = $1, last_name = $2, email = $3
WHERE id = $4
RETURNING id, first_name, last_name, email`,
		user.FirstName, user.LastName, user.Email, user.ID,
	).Scan(&updated.ID, &updated.FirstName, &updated.LastName, &updated.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, mapPGError(err, "update")
	}
	return updated, nil
}

func (s *pgSession) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("users: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func mapPGError(err error, op string) error {
	if isUniqueViolation(err) {
		return &duplicateError{cause: err}
	}
	return fmt.Errorf("users: %s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

var _ Store = (*Repository)(nil)
