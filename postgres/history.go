package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SearchHistoryEntry records one executed search for an owner.
type SearchHistoryEntry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Query     string    `json:"query"`
	Total     int       `json:"total"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryStore persists executed searches.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore creates a HistoryStore on top of db.
func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Record inserts a search entry. Failures are the caller's to log, a missed
// history line must never fail the search itself.
func (s *HistoryStore) Record(ctx context.Context, ownerID, query string, total int) error {
	q := `INSERT INTO search_history (id, owner_id, query, total, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, q,
		uuid.New().String(), ownerID, query, total, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("enregistrement de l'historique: %w", err)
	}

	return nil
}

// Recent returns the latest entries for an owner, newest first.
func (s *HistoryStore) Recent(ctx context.Context, ownerID string, limit int) ([]SearchHistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	q := `SELECT id, owner_id, query, total, created_at
		FROM search_history
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, q, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("lecture de l'historique: %w", err)
	}
	defer rows.Close()

	out := make([]SearchHistoryEntry, 0, limit)

	for rows.Next() {
		var e SearchHistoryEntry
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Query, &e.Total, &e.CreatedAt); err != nil {
			return nil, err
		}

		out = append(out, e)
	}

	return out, rows.Err()
}
