package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// SaveRecord is one row of save_history.
type SaveRecord struct {
	ID           int64
	Username     string
	VenueCount   int
	BlockedCount int
	Payload      []byte
	CreatedAt    time.Time
}

const Schema = `
CREATE TABLE IF NOT EXISTS save_history (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT        NOT NULL,
	venue_count   INTEGER     NOT NULL,
	blocked_count INTEGER     NOT NULL,
	payload       JSONB       NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS save_history_created_at_idx ON save_history (created_at DESC);
`

// Open connects to Postgres and makes sure the schema exists.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := conn.ExecContext(ctx, Schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return conn, nil
}
