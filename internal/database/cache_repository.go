package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CacheEntry is one cached metadata-provider response.
type CacheEntry struct {
	Key       string
	Payload   []byte
	FetchedAt int64 // epoch millis
}

// SelectionEntry is one cached daily-selection payload for a context.
type SelectionEntry struct {
	Context   string
	DateKey   string
	Payload   []byte
	CreatedAt int64
}

// CacheRepository stores metadata-provider responses and daily selections.
type CacheRepository struct {
	db *sql.DB
}

// NewCacheRepository creates a cache repository.
func NewCacheRepository(db *sql.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// PutMetadataCache upserts a provider response under its request key.
func (r *CacheRepository) PutMetadataCache(key string, payload []byte) error {
	_, err := r.db.Exec(
		"INSERT INTO metadata_cache (key, payload, fetched_at) VALUES (?, ?, ?) ON CONFLICT (key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at",
		key, payload, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put metadata cache %s: %w", key, err)
	}
	return nil
}

// GetMetadataCache returns the cached entry for a key regardless of age, or
// ErrNotFound. TTL policy belongs to the caller, which may deliberately serve
// a stale entry as a last-resort fallback.
func (r *CacheRepository) GetMetadataCache(key string) (CacheEntry, error) {
	var e CacheEntry
	err := r.db.QueryRow("SELECT key, payload, fetched_at FROM metadata_cache WHERE key = ?", key).
		Scan(&e.Key, &e.Payload, &e.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CacheEntry{}, ErrNotFound
	}
	if err != nil {
		return CacheEntry{}, fmt.Errorf("get metadata cache %s: %w", key, err)
	}
	return e, nil
}

// PutDailySelection stores the selection payload for a context, replacing any
// previous date's entry for that context.
func (r *CacheRepository) PutDailySelection(context, dateKey string, payload []byte) error {
	_, err := r.db.Exec(
		"INSERT INTO daily_selections (context, date_key, payload, created_at) VALUES (?, ?, ?, ?) ON CONFLICT (context) DO UPDATE SET date_key = excluded.date_key, payload = excluded.payload, created_at = excluded.created_at",
		context, dateKey, payload, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put daily selection %s: %w", context, err)
	}
	return nil
}

// GetDailySelection returns the selection for a context only when it was built
// for the given date key.
func (r *CacheRepository) GetDailySelection(context, dateKey string) (SelectionEntry, error) {
	var e SelectionEntry
	err := r.db.QueryRow(
		"SELECT context, date_key, payload, created_at FROM daily_selections WHERE context = ? AND date_key = ?",
		context, dateKey).
		Scan(&e.Context, &e.DateKey, &e.Payload, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SelectionEntry{}, ErrNotFound
	}
	if err != nil {
		return SelectionEntry{}, fmt.Errorf("get daily selection %s: %w", context, err)
	}
	return e, nil
}

// PurgeExpiredDailySelections removes selections built for any other date.
func (r *CacheRepository) PurgeExpiredDailySelections(currentKey string) error {
	_, err := r.db.Exec("DELETE FROM daily_selections WHERE date_key != ?", currentKey)
	if err != nil {
		return fmt.Errorf("purge daily selections: %w", err)
	}
	return nil
}
