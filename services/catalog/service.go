// Package catalog keeps the local mirror of the remote media catalog in sync
// and serves reads from it. A full sync walks the three content sections
// sequentially, writing items in fixed-size batches and reporting monotonic
// progress; a failing section degrades to empty instead of aborting the run.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"streamvault/internal/database"
	"streamvault/models"
	"streamvault/utils"
)

// ErrSyncInProgress is returned when SyncAll is called while a run is active.
// Callers treat it as benign: the call is a no-op, not queued.
var ErrSyncInProgress = errors.New("catalog: sync already in progress")

// DefaultBatchSize is how many stream entries are written per store batch.
const DefaultBatchSize = 1000

// defaultSyncMaxAge is how old a completed sync may become before NeedsSync
// asks for a new one.
const defaultSyncMaxAge = 24 * time.Hour

// store is the slice of the persistent store the sync engine needs.
type store interface {
	PutCategories([]models.Category) error
	GetCategories(models.ContentType) ([]models.Category, error)
	PutStreams([]models.StreamEntry) error
	GetStreamsByCategory(string, models.ContentType) ([]models.StreamEntry, error)
	GetAllStreams(models.ContentType) ([]models.StreamEntry, error)
	PutDetail(models.DetailRecord) error
	GetDetail(string) (models.DetailRecord, error)
	PutSyncMeta(models.SyncMetadata) error
	GetSyncMeta(string) (models.SyncMetadata, error)
}

// phase describes one content section of a sync run.
type phase struct {
	contentType    models.ContentType
	categoryAction string
	itemAction     string
	start          float64
	weight         float64
}

// The three phases always run in this order and split the progress bar
// 33/33/34 between them.
var phases = []phase{
	{models.ContentLive, "get_live_categories", "get_live_streams", 0, 33},
	{models.ContentMovie, "get_vod_categories", "get_vod_streams", 33, 33},
	{models.ContentSeries, "get_series_categories", "get_series", 66, 34},
}

// Service is the sync engine.
type Service struct {
	store     store
	client    RemoteClient
	batchSize int
	maxAge    time.Duration

	syncing  atomic.Bool
	progress atomic.Int32
}

// Option tunes the service.
type Option func(*Service)

// WithBatchSize overrides the stream write batch size.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithSyncMaxAge overrides how old a sync may get before NeedsSync fires.
func WithSyncMaxAge(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.maxAge = d
		}
	}
}

// NewService creates the sync engine for one session's store and remote.
func NewService(store store, client RemoteClient, opts ...Option) *Service {
	s := &Service{
		store:     store,
		client:    client,
		batchSize: DefaultBatchSize,
		maxAge:    defaultSyncMaxAge,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsSyncing reports whether a run is active.
func (s *Service) IsSyncing() bool {
	return s.syncing.Load()
}

// Progress returns the current run's progress, 0-100. Within a run the value
// only ever increases.
func (s *Service) Progress() int {
	return int(s.progress.Load())
}

// NeedsSync reports whether an automatic sync is warranted: no recorded sync
// yet, or the last one is older than the configured maximum age.
func (s *Service) NeedsSync() bool {
	meta, err := s.store.GetSyncMeta(models.SyncMetaCategories)
	if err != nil {
		return true
	}
	return time.Since(time.UnixMilli(meta.LastSync)) > s.maxAge
}

// LastSync returns the completion time of the last full sync, zero when none
// has completed yet.
func (s *Service) LastSync() time.Time {
	meta, err := s.store.GetSyncMeta(models.SyncMetaCategories)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(meta.LastSync)
}

// SyncAll mirrors the remote catalog into the store. Phases run strictly
// sequentially; a phase failure is logged and treated as an empty section so
// progress still reaches that phase's ceiling. A call while a run is active
// is a no-op returning ErrSyncInProgress.
func (s *Service) SyncAll(ctx context.Context) error {
	if !s.syncing.CompareAndSwap(false, true) {
		return ErrSyncInProgress
	}
	defer s.syncing.Store(false)

	s.progress.Store(0)
	log.Printf("[sync] full catalog sync started")

	for _, p := range phases {
		if err := s.syncPhase(ctx, p); err != nil {
			// Degrade, don't abort: the section stays empty this run.
			log.Printf("[sync] %s phase failed, continuing: %v", p.contentType, err)
		}
		s.advanceTo(p.start + p.weight)
	}

	meta := models.SyncMetadata{Kind: models.SyncMetaCategories, LastSync: time.Now().UnixMilli()}
	if err := s.store.PutSyncMeta(meta); err != nil {
		return fmt.Errorf("record sync completion: %w", err)
	}
	s.advanceTo(100)
	log.Printf("[sync] full catalog sync finished")
	return nil
}

// syncPhase fetches and stores one section's categories and items.
func (s *Service) syncPhase(ctx context.Context, p phase) error {
	if err := s.syncCategories(ctx, p); err != nil {
		// A dangling category reference on items is acceptable; keep going.
		log.Printf("[sync] %s categories failed: %v", p.contentType, err)
	}

	body, err := s.client.Request(ctx, p.itemAction, nil)
	if err != nil {
		return fmt.Errorf("fetch %s items: %w", p.contentType, err)
	}

	var rawItems []json.RawMessage
	if err := json.Unmarshal(body, &rawItems); err != nil {
		return fmt.Errorf("decode %s items: %w", p.contentType, err)
	}

	total := len(rawItems)
	if total == 0 {
		return nil
	}

	for i := 0; i < total; i += s.batchSize {
		end := i + s.batchSize
		if end > total {
			end = total
		}
		batch := make([]models.StreamEntry, 0, end-i)
		for _, raw := range rawItems[i:end] {
			entry, err := parseStreamEntry(raw, p.contentType)
			if err != nil {
				continue
			}
			batch = append(batch, entry)
		}
		if err := s.store.PutStreams(batch); err != nil {
			return fmt.Errorf("write %s batch: %w", p.contentType, err)
		}

		processed := end
		if processed > total {
			processed = total
		}
		s.advanceTo(p.start + float64(processed)/float64(total)*p.weight)
	}

	log.Printf("[sync] %s: %d items", p.contentType, total)
	return nil
}

func (s *Service) syncCategories(ctx context.Context, p phase) error {
	body, err := s.client.Request(ctx, p.categoryAction, nil)
	if err != nil {
		return err
	}

	var raw []struct {
		CategoryID   looseString `json:"category_id"`
		CategoryName string      `json:"category_name"`
		ParentID     looseString `json:"parent_id"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("decode categories: %w", err)
	}

	categories := make([]models.Category, 0, len(raw))
	for _, c := range raw {
		parent, _ := strconv.Atoi(string(c.ParentID))
		categories = append(categories, models.Category{
			CategoryID:   string(c.CategoryID),
			CategoryName: c.CategoryName,
			ParentID:     parent,
			Type:         p.contentType,
		})
	}
	return s.store.PutCategories(categories)
}

// parseStreamEntry extracts the indexed fields from one provider item while
// keeping the payload itself verbatim.
func parseStreamEntry(raw json.RawMessage, contentType models.ContentType) (models.StreamEntry, error) {
	var item struct {
		StreamID   looseString `json:"stream_id"`
		SeriesID   looseString `json:"series_id"`
		CategoryID looseString `json:"category_id"`
		Name       string      `json:"name"`
		StreamIcon string      `json:"stream_icon"`
		Cover      string      `json:"cover"`
		Rating     looseString `json:"rating"`
		Added      looseString `json:"added"`
	}
	if err := json.Unmarshal(raw, &item); err != nil {
		return models.StreamEntry{}, fmt.Errorf("decode item: %w", err)
	}

	id := string(item.StreamID)
	if id == "" {
		id = string(item.SeriesID)
	}
	if id == "" {
		return models.StreamEntry{}, errors.New("item has no id")
	}

	icon := item.StreamIcon
	if icon == "" {
		icon = item.Cover
	}
	// Providers routinely emit icon URLs with raw spaces.
	if strings.Contains(icon, " ") {
		if encoded, err := utils.EncodeURLWithSpaces(icon); err == nil {
			icon = encoded
		}
	}

	return models.StreamEntry{
		ID:         id,
		CategoryID: string(item.CategoryID),
		Name:       item.Name,
		Type:       contentType,
		Icon:       icon,
		Rating:     string(item.Rating),
		Added:      string(item.Added),
		Raw:        raw,
	}, nil
}

// advanceTo raises progress to target, never lowering it.
func (s *Service) advanceTo(target float64) {
	rounded := int32(target + 0.5)
	for {
		current := s.progress.Load()
		if rounded <= current {
			return
		}
		if s.progress.CompareAndSwap(current, rounded) {
			return
		}
	}
}

// Categories returns cached categories for a type (or all when empty).
func (s *Service) Categories(contentType models.ContentType) ([]models.Category, error) {
	return s.store.GetCategories(contentType)
}

// StreamsByCategory returns cached streams for one category and type.
func (s *Service) StreamsByCategory(categoryID string, contentType models.ContentType) ([]models.StreamEntry, error) {
	return s.store.GetStreamsByCategory(categoryID, contentType)
}

// AllStreams returns every cached stream, optionally filtered by type.
func (s *Service) AllStreams(contentType models.ContentType) ([]models.StreamEntry, error) {
	return s.store.GetAllStreams(contentType)
}

// MovieDetail returns the detail payload for a movie, fetching and caching it
// on first view. The cache write is best-effort: a store failure is logged
// and the fetched payload is still returned.
func (s *Service) MovieDetail(ctx context.Context, id string) (json.RawMessage, error) {
	return s.detail(ctx, id, "get_vod_info", "vod_id")
}

// SeriesDetail returns the detail payload for a series, fetching and caching
// it on first view.
func (s *Service) SeriesDetail(ctx context.Context, id string) (json.RawMessage, error) {
	return s.detail(ctx, id, "get_series_info", "series_id")
}

func (s *Service) detail(ctx context.Context, id, action, idParam string) (json.RawMessage, error) {
	if rec, err := s.store.GetDetail(id); err == nil {
		return rec.Payload, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		log.Printf("[sync] detail cache read failed for %s: %v", id, err)
	}

	body, err := s.client.Request(ctx, action, map[string]string{idParam: id})
	if err != nil {
		return nil, fmt.Errorf("fetch detail %s: %w", id, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("detail %s: malformed response", id)
	}

	rec := models.DetailRecord{ID: id, Payload: body, Timestamp: time.Now().UnixMilli()}
	if err := s.store.PutDetail(rec); err != nil {
		log.Printf("[sync] detail cache write failed for %s: %v", id, err)
	}
	return body, nil
}
