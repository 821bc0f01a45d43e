package abuse

import (
	"context"
	"database/sql"
	"fmt"

	"inkgate/internal/auth/models"
)

// PostgresStore persists blocked-IP records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByIP(ctx context.Context, ip string) ([]*models.BlockedIP, error) {
	query := `
		SELECT id, ip, failure_count, user_agent, device, last_failure_at
		FROM blocked_ips
		WHERE ip = $1
		ORDER BY last_failure_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, ip)
	if err != nil {
		return nil, fmt.Errorf("query blocked ips: %w", err)
	}
	defer rows.Close()

	var out []*models.BlockedIP
	for rows.Next() {
		var r models.BlockedIP
		if err := rows.Scan(&r.ID, &r.IP, &r.FailureCount, &r.UserAgent, &r.Device, &r.LastFailureAt); err != nil {
			return nil, fmt.Errorf("scan blocked ip: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Save(ctx context.Context, record *models.BlockedIP) error {
	query := `
		INSERT INTO blocked_ips (id, ip, failure_count, user_agent, device, last_failure_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET failure_count = EXCLUDED.failure_count,
		    user_agent = EXCLUDED.user_agent,
		    device = EXCLUDED.device,
		    last_failure_at = EXCLUDED.last_failure_at
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.IP, record.FailureCount, record.UserAgent, record.Device, record.LastFailureAt)
	if err != nil {
		return fmt.Errorf("save blocked ip: %w", err)
	}
	return nil
}
