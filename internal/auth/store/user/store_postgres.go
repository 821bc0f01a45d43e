package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"inkgate/internal/auth/models"
	"inkgate/internal/auth/store"
)

// ErrDuplicateEmail is returned by Create when the email is already taken.
var ErrDuplicateEmail = errors.New("duplicate email")

// PostgresStore persists users in PostgreSQL. The store is pure I/O; lock
// policy and counter rules live in the auth service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, email, name, password_hash, role, active, failed_login_attempts, locked_until)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.Active, u.FailedLoginAttempts, u.LockedUntil)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, u *models.User) error {
	query := `
		UPDATE users
		SET email = lower($2), name = $3, password_hash = $4, role = $5,
		    active = $6, failed_login_attempts = $7, locked_until = $8
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.Active, u.FailedLoginAttempts, u.LockedUntil)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, role, active, failed_login_attempts, locked_until
		FROM users
		WHERE id = $1
	`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, role, active, failed_login_attempts, locked_until
		FROM users
		WHERE email = lower($1)
	`
	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var lockedUntil sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&u.Active, &u.FailedLoginAttempts, &lockedUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if lockedUntil.Valid {
		t := lockedUntil.Time
		u.LockedUntil = &t
	}
	return &u, nil
}
