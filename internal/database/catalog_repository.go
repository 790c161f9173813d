package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"streamvault/models"
)

// CatalogRepository stores categories, stream entries, lazily fetched detail
// payloads and the sync metadata row.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a catalog repository.
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// PutCategories upserts the given categories in one transaction. Re-running a
// sync replaces rows in place; there is no diffing.
func (r *CatalogRepository) PutCategories(categories []models.Category) error {
	if len(categories) == 0 {
		return nil
	}
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO categories (category_id, type, category_name, parent_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (category_id, type) DO UPDATE SET
			category_name = excluded.category_name,
			parent_id = excluded.parent_id`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range categories {
		if _, err := stmt.Exec(c.CategoryID, string(c.Type), c.CategoryName, c.ParentID); err != nil {
			return fmt.Errorf("upsert category %s: %w", c.CategoryID, err)
		}
	}
	return tx.Commit()
}

// GetCategories returns categories, optionally filtered by type. Order is not
// defined; callers sort.
func (r *CatalogRepository) GetCategories(contentType models.ContentType) ([]models.Category, error) {
	query := "SELECT category_id, type, category_name, parent_id FROM categories"
	var args []any
	if contentType != "" {
		query += " WHERE type = ?"
		args = append(args, string(contentType))
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		var typ string
		if err := rows.Scan(&c.CategoryID, &typ, &c.CategoryName, &c.ParentID); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = models.ContentType(typ)
		out = append(out, c)
	}
	return out, rows.Err()
}

// PutStreams upserts one batch of stream entries in a single transaction.
// Batches within a sync phase are applied in order.
func (r *CatalogRepository) PutStreams(batch []models.StreamEntry) error {
	if len(batch) == 0 {
		return nil
	}
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO streams (id, category_id, type, name, icon, rating, added, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			category_id = excluded.category_id,
			type = excluded.type,
			name = excluded.name,
			icon = excluded.icon,
			rating = excluded.rating,
			added = excluded.added,
			raw = excluded.raw`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, s := range batch {
		if _, err := stmt.Exec(s.ID, s.CategoryID, string(s.Type), s.Name, s.Icon, s.Rating, s.Added, []byte(s.Raw)); err != nil {
			return fmt.Errorf("upsert stream %s: %w", s.ID, err)
		}
	}
	return tx.Commit()
}

// GetStreamsByCategory returns streams for one category and type. A category
// reference may dangle when that category's fetch failed; that is fine here.
func (r *CatalogRepository) GetStreamsByCategory(categoryID string, contentType models.ContentType) ([]models.StreamEntry, error) {
	rows, err := r.db.Query(
		"SELECT id, category_id, type, name, icon, rating, added, raw FROM streams WHERE category_id = ? AND type = ?",
		categoryID, string(contentType))
	if err != nil {
		return nil, fmt.Errorf("query streams: %w", err)
	}
	defer rows.Close()
	return scanStreams(rows)
}

// GetAllStreams returns every stream, optionally filtered by type.
func (r *CatalogRepository) GetAllStreams(contentType models.ContentType) ([]models.StreamEntry, error) {
	query := "SELECT id, category_id, type, name, icon, rating, added, raw FROM streams"
	var args []any
	if contentType != "" {
		query += " WHERE type = ?"
		args = append(args, string(contentType))
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query streams: %w", err)
	}
	defer rows.Close()
	return scanStreams(rows)
}

func scanStreams(rows *sql.Rows) ([]models.StreamEntry, error) {
	var out []models.StreamEntry
	for rows.Next() {
		var s models.StreamEntry
		var typ string
		var raw []byte
		if err := rows.Scan(&s.ID, &s.CategoryID, &typ, &s.Name, &s.Icon, &s.Rating, &s.Added, &raw); err != nil {
			return nil, fmt.Errorf("scan stream: %w", err)
		}
		s.Type = models.ContentType(typ)
		s.Raw = raw
		out = append(out, s)
	}
	return out, rows.Err()
}

// PutDetail stores a detail payload. Details are immutable: an existing row
// wins and the write is a no-op.
func (r *CatalogRepository) PutDetail(rec models.DetailRecord) error {
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UnixMilli()
	}
	_, err := r.db.Exec(
		"INSERT INTO details (id, payload, created_at) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING",
		rec.ID, []byte(rec.Payload), rec.Timestamp)
	if err != nil {
		return fmt.Errorf("put detail %s: %w", rec.ID, err)
	}
	return nil
}

// GetDetail returns the cached detail payload for an id, or ErrNotFound.
func (r *CatalogRepository) GetDetail(id string) (models.DetailRecord, error) {
	var rec models.DetailRecord
	var payload []byte
	err := r.db.QueryRow("SELECT id, payload, created_at FROM details WHERE id = ?", id).
		Scan(&rec.ID, &payload, &rec.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DetailRecord{}, ErrNotFound
	}
	if err != nil {
		return models.DetailRecord{}, fmt.Errorf("get detail %s: %w", id, err)
	}
	rec.Payload = payload
	return rec, nil
}

// PutSyncMeta records sync completion for a kind.
func (r *CatalogRepository) PutSyncMeta(meta models.SyncMetadata) error {
	_, err := r.db.Exec(
		"INSERT INTO sync_metadata (kind, last_sync) VALUES (?, ?) ON CONFLICT (kind) DO UPDATE SET last_sync = excluded.last_sync",
		meta.Kind, meta.LastSync)
	if err != nil {
		return fmt.Errorf("put sync metadata: %w", err)
	}
	return nil
}

// GetSyncMeta returns sync metadata for a kind, or ErrNotFound.
func (r *CatalogRepository) GetSyncMeta(kind string) (models.SyncMetadata, error) {
	var meta models.SyncMetadata
	err := r.db.QueryRow("SELECT kind, last_sync FROM sync_metadata WHERE kind = ?", kind).
		Scan(&meta.Kind, &meta.LastSync)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SyncMetadata{}, ErrNotFound
	}
	if err != nil {
		return models.SyncMetadata{}, fmt.Errorf("get sync metadata: %w", err)
	}
	return meta, nil
}
