package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"inkgate/internal/auth/models"
)

// PostgresStore persists credential records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, t *models.Token) error {
	query := `
		INSERT INTO tokens (id, value, kind, user_id, revoked, expired)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET revoked = EXCLUDED.revoked, expired = EXCLUDED.expired
	`
	_, err := s.db.ExecContext(ctx, query, t.ID, t.Value, t.Kind, t.UserID, t.Revoked, t.Expired)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByUser(ctx context.Context, userID uuid.UUID) ([]*models.Token, error) {
	query := `
		SELECT id, value, kind, user_id, revoked, expired
		FROM tokens
		WHERE user_id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query tokens: %w", err)
	}
	defer rows.Close()

	var out []*models.Token
	for rows.Next() {
		var t models.Token
		if err := rows.Scan(&t.ID, &t.Value, &t.Kind, &t.UserID, &t.Revoked, &t.Expired); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindByValue(ctx context.Context, value string) (*models.Token, error) {
	query := `
		SELECT id, value, kind, user_id, revoked, expired
		FROM tokens
		WHERE value = $1
	`
	var t models.Token
	err := s.db.QueryRowContext(ctx, query, value).
		Scan(&t.ID, &t.Value, &t.Kind, &t.UserID, &t.Revoked, &t.Expired)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan token: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete tokens: %w", err)
	}
	return nil
}
