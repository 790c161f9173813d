// Package progress maintains playback positions. Updates pass a regression
// guard and a write gate before touching storage, so a seeking player that
// reports every second does not translate into a write per second.
package progress

import (
	"log"
	"sync"
	"time"

	"streamvault/models"
)

// DefaultDebounce is how long the summary flush waits for further updates.
const DefaultDebounce = 2 * time.Second

// writeGateDelta is the minimum position change (seconds) that forces a
// persist when nothing else about the record changed.
const writeGateDelta = 5.0

// store is the durable local mirror of the summary map.
type store interface {
	Put(contentID string, rec models.WatchProgressRecord) error
	All() (map[string]models.WatchProgressRecord, error)
}

// Tracker holds the in-memory progress state for one session. Movies are
// keyed by stream id, series by series id with per-episode detail buckets.
type Tracker struct {
	mu      sync.Mutex
	summary map[string]models.WatchProgressRecord
	detail  map[string]map[string]models.WatchProgressRecord

	store    store
	sink     Sink
	debounce time.Duration
	timer    *time.Timer

	regressionDrops int
}

// NewTracker builds a tracker seeded from the store's persisted summary.
// sink may be nil when no remote mirror is configured.
func NewTracker(store store, sink Sink, debounce time.Duration) (*Tracker, error) {
	summary, err := store.All()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Tracker{
		summary:  summary,
		detail:   make(map[string]map[string]models.WatchProgressRecord),
		store:    store,
		sink:     sink,
		debounce: debounce,
	}, nil
}

// Update applies one playback report. It returns true when the record was
// accepted and persisted; gated or regressed updates return false and are
// not errors.
func (t *Tracker) Update(rec models.WatchProgressRecord) bool {
	contentID := rec.ContentID()
	if contentID == "" {
		return false
	}
	if rec.UpdatedAt == 0 {
		rec.UpdatedAt = time.Now().UnixMilli()
	}

	t.mu.Lock()
	existing, exists := t.summary[contentID]

	if exists && regressed(existing, rec) {
		t.regressionDrops++
		t.mu.Unlock()
		log.Printf("[progress] dropped zero-position regression for %s", contentID)
		return false
	}

	if rec.Duration == 0 {
		rec.Duration = existing.Duration
	}

	if exists && !passesWriteGate(existing, rec) {
		t.mu.Unlock()
		return false
	}

	t.summary[contentID] = rec
	t.applyToDetail(rec)
	t.scheduleFlushLocked()
	t.mu.Unlock()

	if err := t.store.Put(contentID, rec); err != nil {
		log.Printf("[progress] local mirror write failed for %s: %v", contentID, err)
	}
	if t.sink != nil {
		if err := t.sink.PutGranular(rec.Type, contentID, rec); err != nil {
			log.Printf("[progress] granular sink write failed for %s: %v", contentID, err)
		}
	}
	return true
}

// regressed reports whether rec is a position reset against existing: same
// episode (or same movie), known progress replaced by zero.
func regressed(existing, rec models.WatchProgressRecord) bool {
	if existing.Progress <= 0 || rec.Progress != 0 {
		return false
	}
	if rec.Type == models.ContentSeries {
		return existing.GranularID() == rec.GranularID()
	}
	return true
}

// passesWriteGate reports whether an update differs enough from the stored
// record to be worth persisting.
func passesWriteGate(existing, rec models.WatchProgressRecord) bool {
	delta := existing.Progress - rec.Progress
	if delta < 0 {
		delta = -delta
	}
	if delta > writeGateDelta {
		return true
	}
	if existing.GranularID() != rec.GranularID() {
		return true
	}
	if existing.Duration == 0 && rec.Duration > 0 {
		return true
	}
	return false
}

// applyToDetail mirrors an accepted series update into its loaded detail
// bucket, with the same guards applied independently. Caller holds the lock.
func (t *Tracker) applyToDetail(rec models.WatchProgressRecord) {
	if rec.Type != models.ContentSeries || rec.SeriesID == "" {
		return
	}
	bucket, ok := t.detail[rec.SeriesID]
	if !ok {
		bucket = make(map[string]models.WatchProgressRecord)
		t.detail[rec.SeriesID] = bucket
	}
	key := rec.GranularID()
	if prev, exists := bucket[key]; exists {
		if regressed(prev, rec) {
			return
		}
		if rec.Duration == 0 {
			rec.Duration = prev.Duration
		}
	}
	bucket[key] = rec
}

// Get resolves a progress record by any of its identities: summary key
// first, then summary records whose episode or stream id matches, then the
// detail buckets.
func (t *Tracker) Get(id string) (models.WatchProgressRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if rec, ok := t.summary[id]; ok {
		return rec, true
	}
	for _, rec := range t.summary {
		if rec.EpisodeID == id || rec.StreamID == id {
			return rec, true
		}
	}
	for _, bucket := range t.detail {
		if rec, ok := bucket[id]; ok {
			return rec, true
		}
		for _, rec := range bucket {
			if rec.EpisodeID == id || rec.StreamID == id {
				return rec, true
			}
		}
	}
	return models.WatchProgressRecord{}, false
}

// Summary returns a copy of the summary map.
func (t *Tracker) Summary() map[string]models.WatchProgressRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]models.WatchProgressRecord, len(t.summary))
	for k, v := range t.summary {
		out[k] = v
	}
	return out
}

// Episodes returns the loaded detail bucket for a series, nil when none has
// been populated this session.
func (t *Tracker) Episodes(seriesID string) map[string]models.WatchProgressRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	bucket, ok := t.detail[seriesID]
	if !ok {
		return nil
	}
	out := make(map[string]models.WatchProgressRecord, len(bucket))
	for k, v := range bucket {
		out[k] = v
	}
	return out
}

// RegressionDrops reports how many updates the regression guard discarded.
func (t *Tracker) RegressionDrops() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.regressionDrops
}

// scheduleFlushLocked arms (or re-arms) the debounced summary flush. Every
// accepted update extends the deadline, so a burst of updates collapses into
// one sink write. Caller holds the lock.
func (t *Tracker) scheduleFlushLocked() {
	if t.sink == nil {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.debounce, func() {
		if err := t.flushSummary(); err != nil {
			log.Printf("[progress] summary flush failed: %v", err)
		}
	})
}

// Flush forces the pending summary write, if any. Called on shutdown and
// logout so no accepted progress is left only in memory.
func (t *Tracker) Flush() error {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
	if t.sink == nil {
		return nil
	}
	return t.flushSummary()
}

func (t *Tracker) flushSummary() error {
	return t.sink.PutSummary(t.Summary())
}
