package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"streamvault/models"
)

// ProgressRepository is the durable local mirror of the progress tracker's
// summary map. Records are stored as JSON payloads so adding fields to
// WatchProgressRecord never needs a migration.
type ProgressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a progress repository.
func NewProgressRepository(db *sql.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Put upserts one progress record keyed by content id.
func (r *ProgressRepository) Put(contentID string, rec models.WatchProgressRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal progress %s: %w", contentID, err)
	}
	_, err = r.db.Exec(
		"INSERT INTO watch_progress (content_id, payload, updated_at) VALUES (?, ?, ?) ON CONFLICT (content_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at",
		contentID, payload, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put progress %s: %w", contentID, err)
	}
	return nil
}

// All returns the full summary map.
func (r *ProgressRepository) All() (map[string]models.WatchProgressRecord, error) {
	rows, err := r.db.Query("SELECT content_id, payload FROM watch_progress")
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.WatchProgressRecord)
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		var rec models.WatchProgressRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			// Skip unreadable rows rather than failing the whole load.
			continue
		}
		out[id] = rec
	}
	return out, rows.Err()
}
