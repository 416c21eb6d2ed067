package repository

import (
	"context"
	"database/sql"
	"fmt"
	"puntoazul/internal/db"
	"puntoazul/internal/entities"
	"time"

	"github.com/lib/pq"
)

type HistoryRepository struct {
	DB *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{DB: db}
}

// Insert records a successful save together with the payload that was sent.
func (r *HistoryRepository) Insert(ctx context.Context, rec db.SaveRecord) (int64, error) {
	query := `INSERT INTO save_history (username, venue_count, blocked_count, payload)
		VALUES ($1, $2, $3, $4) RETURNING id`
	var id int64
	err := r.DB.QueryRowContext(ctx, query, rec.Username, rec.VenueCount, rec.BlockedCount, rec.Payload).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error inserting save history: %w", err)
	}
	return id, nil
}

// List returns the most recent saves first.
func (r *HistoryRepository) List(ctx context.Context, limit int) ([]entities.SaveSummary, error) {
	query := `SELECT id, username, venue_count, blocked_count, created_at
		FROM save_history ORDER BY created_at DESC, id DESC LIMIT $1`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying save history: %w", err)
	}
	defer rows.Close()

	summaries := []entities.SaveSummary{}
	for rows.Next() {
		var s entities.SaveSummary
		if err := rows.Scan(&s.ID, &s.Username, &s.VenueCount, &s.BlockedCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning save history: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return summaries, nil
}

// Prune deletes history older than cutoff and returns the ids removed.
func (r *HistoryRepository) Prune(ctx context.Context, cutoff time.Time) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id FROM save_history WHERE created_at < $1`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("error querying old save history: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("error scanning save history id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if _, err := r.DB.ExecContext(ctx, `DELETE FROM save_history WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("error deleting save history: %w", err)
	}
	return ids, nil
}
