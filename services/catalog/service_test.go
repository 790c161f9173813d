package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"streamvault/internal/database"
	"streamvault/models"
)

// stubRemote serves canned payloads keyed by action.
type stubRemote struct {
	mu        sync.Mutex
	responses map[string][]byte
	errors    map[string]error
	calls     []string
}

func (r *stubRemote) Request(_ context.Context, action string, _ map[string]string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, action)
	if err, ok := r.errors[action]; ok {
		return nil, err
	}
	if body, ok := r.responses[action]; ok {
		return body, nil
	}
	return []byte("[]"), nil
}

// stubStore is an in-memory store for sync tests.
type stubStore struct {
	mu           sync.Mutex
	categories   []models.Category
	streams      []models.StreamEntry
	details      map[string]models.DetailRecord
	syncMeta     map[string]models.SyncMetadata
	streamsCalls int
	putStreamErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		details:  make(map[string]models.DetailRecord),
		syncMeta: make(map[string]models.SyncMetadata),
	}
}

func (s *stubStore) PutCategories(cats []models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, cats...)
	return nil
}

func (s *stubStore) GetCategories(t models.ContentType) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t == "" {
		return s.categories, nil
	}
	var out []models.Category
	for _, c := range s.categories {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubStore) PutStreams(entries []models.StreamEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamsCalls++
	if s.putStreamErr != nil {
		return s.putStreamErr
	}
	s.streams = append(s.streams, entries...)
	return nil
}

func (s *stubStore) GetStreamsByCategory(categoryID string, t models.ContentType) ([]models.StreamEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.StreamEntry
	for _, e := range s.streams {
		if e.CategoryID == categoryID && e.Type == t {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubStore) GetAllStreams(t models.ContentType) ([]models.StreamEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t == "" {
		return s.streams, nil
	}
	var out []models.StreamEntry
	for _, e := range s.streams {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubStore) PutDetail(rec models.DetailRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.details[rec.ID]; exists {
		return nil
	}
	s.details[rec.ID] = rec
	return nil
}

func (s *stubStore) GetDetail(id string) (models.DetailRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.details[id]
	if !ok {
		return models.DetailRecord{}, database.ErrNotFound
	}
	return rec, nil
}

func (s *stubStore) PutSyncMeta(meta models.SyncMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncMeta[meta.Kind] = meta
	return nil
}

func (s *stubStore) GetSyncMeta(kind string) (models.SyncMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, ok := s.syncMeta[kind]
	if !ok {
		return models.SyncMetadata{}, database.ErrNotFound
	}
	return meta, nil
}

func setupSyncTest(t *testing.T) (*Service, *stubStore, *stubRemote) {
	t.Helper()
	store := newStubStore()
	remote := &stubRemote{
		responses: make(map[string][]byte),
		errors:    make(map[string]error),
	}
	svc := NewService(store, remote)
	return svc, store, remote
}

func TestSyncAllStoresAllPhases(t *testing.T) {
	svc, store, remote := setupSyncTest(t)

	remote.responses["get_live_categories"] = []byte(`[{"category_id":"1","category_name":"News","parent_id":0}]`)
	remote.responses["get_live_streams"] = []byte(`[{"stream_id":100,"name":"News 24","category_id":"1","stream_icon":"http://x/icon.png"}]`)
	remote.responses["get_vod_categories"] = []byte(`[{"category_id":"1","category_name":"Action","parent_id":0}]`)
	remote.responses["get_vod_streams"] = []byte(`[{"stream_id":"200","name":"Inception","category_id":"1","rating":8.8}]`)
	remote.responses["get_series_categories"] = []byte(`[{"category_id":"5","category_name":"Drama","parent_id":0}]`)
	remote.responses["get_series"] = []byte(`[{"series_id":300,"name":"Breaking Bad","category_id":"5","cover":"http://x/cover.jpg"}]`)

	if err := svc.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}

	if got := svc.Progress(); got != 100 {
		t.Fatalf("expected progress 100 after sync, got %d", got)
	}

	live, err := store.GetStreamsByCategory("1", models.ContentLive)
	if err != nil || len(live) != 1 {
		t.Fatalf("expected 1 live stream, got %d (err %v)", len(live), err)
	}
	if live[0].ID != "100" {
		t.Fatalf("expected numeric stream_id coerced to \"100\", got %q", live[0].ID)
	}

	movies, _ := store.GetAllStreams(models.ContentMovie)
	if len(movies) != 1 || movies[0].Rating != "8.8" {
		t.Fatalf("expected movie with rating 8.8, got %+v", movies)
	}

	series, _ := store.GetAllStreams(models.ContentSeries)
	if len(series) != 1 {
		t.Fatalf("expected 1 series, got %d", len(series))
	}
	if series[0].ID != "300" {
		t.Fatalf("expected series_id used as id, got %q", series[0].ID)
	}
	if series[0].Icon != "http://x/cover.jpg" {
		t.Fatalf("expected cover used as icon for series, got %q", series[0].Icon)
	}

	// Raw payload must survive byte-for-byte.
	var decoded map[string]any
	if err := json.Unmarshal(series[0].Raw, &decoded); err != nil {
		t.Fatalf("raw payload not valid JSON: %v", err)
	}
	if decoded["name"] != "Breaking Bad" {
		t.Fatalf("raw payload lost fields: %v", decoded)
	}

	if svc.NeedsSync() {
		t.Fatal("expected NeedsSync false right after a completed sync")
	}
	if svc.LastSync().IsZero() {
		t.Fatal("expected LastSync to be set after a completed sync")
	}
}

func TestSyncAllPhaseFailureDegrades(t *testing.T) {
	svc, store, remote := setupSyncTest(t)

	remote.errors["get_live_streams"] = errors.New("provider timeout")
	remote.responses["get_vod_streams"] = []byte(`[{"stream_id":1,"name":"Movie","category_id":"1"}]`)

	if err := svc.SyncAll(context.Background()); err != nil {
		t.Fatalf("expected degraded sync to succeed, got %v", err)
	}

	live, _ := store.GetAllStreams(models.ContentLive)
	if len(live) != 0 {
		t.Fatalf("expected no live streams after failed phase, got %d", len(live))
	}
	movies, _ := store.GetAllStreams(models.ContentMovie)
	if len(movies) != 1 {
		t.Fatalf("expected movie phase to survive live failure, got %d streams", len(movies))
	}
	if got := svc.Progress(); got != 100 {
		t.Fatalf("expected progress 100 despite phase failure, got %d", got)
	}
	if _, err := store.GetSyncMeta(models.SyncMetaCategories); err != nil {
		t.Fatalf("expected sync metadata written despite phase failure: %v", err)
	}
}

func TestSyncAllBatchesLargeSections(t *testing.T) {
	store := newStubStore()
	remote := &stubRemote{responses: make(map[string][]byte), errors: make(map[string]error)}
	svc := NewService(store, remote, WithBatchSize(10))

	items := make([]map[string]any, 25)
	for i := range items {
		items[i] = map[string]any{"stream_id": i + 1, "name": "Movie", "category_id": "1"}
	}
	body, _ := json.Marshal(items)
	remote.responses["get_vod_streams"] = body

	if err := svc.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}

	movies, _ := store.GetAllStreams(models.ContentMovie)
	if len(movies) != 25 {
		t.Fatalf("expected 25 movies, got %d", len(movies))
	}
	// 3 batches for the movie phase, no writes for the empty phases.
	if store.streamsCalls != 3 {
		t.Fatalf("expected 3 batch writes, got %d", store.streamsCalls)
	}
}

func TestSyncAllConcurrentIsNoOp(t *testing.T) {
	svc, _, remote := setupSyncTest(t)

	release := make(chan struct{})
	started := make(chan struct{})
	blocking := &blockingRemote{inner: remote, release: release, started: started}
	svc.client = blocking

	done := make(chan error, 1)
	go func() { done <- svc.SyncAll(context.Background()) }()
	<-started

	if err := svc.SyncAll(context.Background()); !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}
	if !svc.IsSyncing() {
		t.Fatal("expected IsSyncing true while first run is blocked")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first sync failed: %v", err)
	}
	if svc.IsSyncing() {
		t.Fatal("expected IsSyncing false after completion")
	}
}

type blockingRemote struct {
	inner   RemoteClient
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func (b *blockingRemote) Request(ctx context.Context, action string, params map[string]string) ([]byte, error) {
	b.once.Do(func() {
		close(b.started)
		<-b.release
	})
	return b.inner.Request(ctx, action, params)
}

func TestSyncAllItemsWithoutIDSkipped(t *testing.T) {
	svc, store, remote := setupSyncTest(t)

	remote.responses["get_vod_streams"] = []byte(`[{"name":"No ID"},{"stream_id":7,"name":"Good","category_id":"1"}]`)

	if err := svc.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}
	movies, _ := store.GetAllStreams(models.ContentMovie)
	if len(movies) != 1 || movies[0].ID != "7" {
		t.Fatalf("expected only the item with an id, got %+v", movies)
	}
}

func TestSyncAllEncodesIconSpaces(t *testing.T) {
	svc, store, remote := setupSyncTest(t)

	remote.responses["get_vod_streams"] = []byte(`[{"stream_id":1,"name":"Movie","category_id":"1","stream_icon":"http://x/My Icon.png"}]`)

	if err := svc.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}
	movies, _ := store.GetAllStreams(models.ContentMovie)
	if len(movies) != 1 || movies[0].Icon != "http://x/My%20Icon.png" {
		t.Fatalf("expected icon spaces encoded, got %+v", movies)
	}
}

func TestNeedsSyncWithoutMetadata(t *testing.T) {
	svc, _, _ := setupSyncTest(t)
	if !svc.NeedsSync() {
		t.Fatal("expected NeedsSync true before any sync")
	}
}

func TestMovieDetailFetchesOnceThenCaches(t *testing.T) {
	svc, store, remote := setupSyncTest(t)
	remote.responses["get_vod_info"] = []byte(`{"info":{"name":"Inception"},"movie_data":{"stream_id":200}}`)

	first, err := svc.MovieDetail(context.Background(), "200")
	if err != nil {
		t.Fatalf("first detail fetch failed: %v", err)
	}

	// Change the remote answer; the cached payload must win.
	remote.mu.Lock()
	remote.responses["get_vod_info"] = []byte(`{"info":{"name":"Changed"}}`)
	remote.mu.Unlock()

	second, err := svc.MovieDetail(context.Background(), "200")
	if err != nil {
		t.Fatalf("second detail fetch failed: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("expected cached payload on second read, got %s", second)
	}

	remote.mu.Lock()
	fetches := 0
	for _, c := range remote.calls {
		if c == "get_vod_info" {
			fetches++
		}
	}
	remote.mu.Unlock()
	if fetches != 1 {
		t.Fatalf("expected 1 remote detail fetch, got %d", fetches)
	}

	if _, err := store.GetDetail("200"); err != nil {
		t.Fatalf("expected detail persisted: %v", err)
	}
}

func TestSeriesDetailRemoteFailure(t *testing.T) {
	svc, _, remote := setupSyncTest(t)
	remote.errors["get_series_info"] = errors.New("unreachable")

	if _, err := svc.SeriesDetail(context.Background(), "300"); err == nil {
		t.Fatal("expected error when remote fails and nothing is cached")
	}
}
