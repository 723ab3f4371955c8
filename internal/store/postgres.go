package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/legal-search/internal/models"
)

// PostgresStore keeps the search audit log in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the search_events table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS search_events (
			id              UUID PRIMARY KEY,
			request_id      VARCHAR(64)  NOT NULL DEFAULT '',
			query           TEXT         NOT NULL,
			sort_order      VARCHAR(16)  NOT NULL,
			total           INTEGER      NOT NULL,
			shown           INTEGER      NOT NULL,
			elapsed_seconds DOUBLE PRECISION NOT NULL,
			created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS search_events_created_at_idx ON search_events (created_at DESC);
	`)
	return err
}

func (s *PostgresStore) RecordSearch(ctx context.Context, ev *models.SearchEvent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO search_events (id, request_id, query, sort_order, total, shown, elapsed_seconds, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ev.ID, ev.RequestID, ev.Query, ev.SortOrder, ev.Total, ev.Shown, ev.ElapsedSeconds, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert search event: %w", err)
	}
	return nil
}

// RecentSearches returns the newest events first.
func (s *PostgresStore) RecentSearches(ctx context.Context, limit int) ([]models.SearchEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, request_id, query, sort_order, total, shown, elapsed_seconds, created_at
		 FROM search_events ORDER BY created_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list search events: %w", err)
	}
	defer rows.Close()

	var events []models.SearchEvent
	for rows.Next() {
		var ev models.SearchEvent
		if err := rows.Scan(&ev.ID, &ev.RequestID, &ev.Query, &ev.SortOrder,
			&ev.Total, &ev.Shown, &ev.ElapsedSeconds, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
