package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/odyssey-erp/roster/internal/platform/db"
)

const sqliteCreateUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE
);
`

// SQLiteRepository persists users in an embedded sqlite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository constructs a sqlite backed store. The caller owns conn.
func NewSQLiteRepository(conn *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: conn}
}

func (r *SQLiteRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteCreateUsersTable); err != nil {
		return fmt.Errorf("users: create table: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) WithTx(ctx context.Context, fn func(context.Context, Session) error) error {
	err := db.WithSQLTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(ctx, &sqliteSession{tx: tx})
	})
	if err != nil && isSQLiteUnique(err) && !errors.Is(err, ErrDuplicateEmail) {
		return &duplicateError{cause: err}
	}
	return err
}

type sqliteSession struct {
	tx *sql.Tx
}

func (s *sqliteSession) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.tx.QueryContext(ctx, `SELECT id, first_name, last_name, email FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return users, nil
}

func (s *sqliteSession) GetUser(ctx context.Context, id int64) (User, error) {
	row := s.tx.QueryRowContext(ctx, `SELECT id, first_name, last_name, email FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (s *sqliteSession) InsertUser(ctx context.Context, in CreateInput) (User, error) {
	row := s.tx.QueryRowContext(ctx, `
INSERT INTO users (first_name, last_name, email)
VALUES (?, ?, ?)
RETURNING id, first_name, last_name, email`,
		in.FirstName, in.LastName, in.Email,
	)
	user, err := scanUser(row)
	if err != nil {
		return User{}, mapSQLiteError(err, "insert")
	}
	return user, nil
}

func (s *sqliteSession) UpdateUser(ctx context.Context, user User) (User, error) {
	row := s.tx.QueryRowContext(ctx, `
UPDATE users SET first_name = ?, last_name = ?, email = ?
WHERE id = ?
RETURNING id, first_name, last_name, email`,
		user.FirstName, user.LastName, user.Email, user.ID,
	)
	updated, err := scanUser(row)
	if err != nil {
		return User{}, mapSQLiteError(err, "update")
	}
	return updated, nil
}

func (s *sqliteSession) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("users: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("users: delete rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (User, error) {
	var user User
	if err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("users: scan: %w", err)
	}
	return user, nil
}

func mapSQLiteError(err error, op string) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if isSQLiteUnique(err) {
		return &duplicateError{cause: err}
	}
	return fmt.Errorf("users: %s: %w", op, err)
}

func isSQLiteUnique(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ Store = (*SQLiteRepository)(nil)
