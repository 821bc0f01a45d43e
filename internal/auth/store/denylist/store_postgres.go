package denylist

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresDenylist persists invalidated credential values in PostgreSQL.
type PostgresDenylist struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresDenylist {
	return &PostgresDenylist{db: db}
}

func (s *PostgresDenylist) Add(ctx context.Context, value string, at time.Time) error {
	query := `
		INSERT INTO invalidated_tokens (value, invalidated_at)
		VALUES ($1, $2)
		ON CONFLICT (value) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, value, at); err != nil {
		return fmt.Errorf("add invalidated token: %w", err)
	}
	return nil
}

func (s *PostgresDenylist) Contains(ctx context.Context, value string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM invalidated_tokens WHERE value = $1)`, value).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check invalidated token: %w", err)
	}
	return exists, nil
}
