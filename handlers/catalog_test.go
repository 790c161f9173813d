package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"streamvault/models"
)

type stubCatalogService struct {
	categories []models.Category
	streams    []models.StreamEntry
	detail     json.RawMessage
	detailErr  error
}

func (s *stubCatalogService) Categories(models.ContentType) ([]models.Category, error) {
	return s.categories, nil
}

func (s *stubCatalogService) StreamsByCategory(string, models.ContentType) ([]models.StreamEntry, error) {
	return s.streams, nil
}

func (s *stubCatalogService) AllStreams(models.ContentType) ([]models.StreamEntry, error) {
	return s.streams, nil
}

func (s *stubCatalogService) MovieDetail(context.Context, string) (json.RawMessage, error) {
	return s.detail, s.detailErr
}

func (s *stubCatalogService) SeriesDetail(context.Context, string) (json.RawMessage, error) {
	return s.detail, s.detailErr
}

func TestCategoriesSortedByName(t *testing.T) {
	h := NewCatalogHandler(&stubCatalogService{
		categories: []models.Category{
			{CategoryID: "3", CategoryName: "Útvarp", Type: models.ContentLive},
			{CategoryID: "1", CategoryName: "Zebra", Type: models.ContentLive},
			{CategoryID: "2", CategoryName: "ação", Type: models.ContentLive},
			{CategoryID: "4", CategoryName: "Action", Type: models.ContentLive},
		},
	})

	rec := httptest.NewRecorder()
	h.Categories(rec, httptest.NewRequest(http.MethodGet, "/api/categories?type=live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []models.Category
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 categories, got %d", len(got))
	}
	// Accent-insensitive ordering: ação sorts with the a's, not after z.
	if got[0].CategoryName != "ação" && got[0].CategoryName != "Action" {
		t.Fatalf("expected accent-folded sort, got order starting with %q", got[0].CategoryName)
	}
	if got[3].CategoryName != "Zebra" {
		t.Fatalf("expected Zebra last, got %q", got[3].CategoryName)
	}
}

func TestCategoriesRejectsUnknownType(t *testing.T) {
	h := NewCatalogHandler(&stubCatalogService{})

	rec := httptest.NewRecorder()
	h.Categories(rec, httptest.NewRequest(http.MethodGet, "/api/categories?type=bogus", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStreamsRequiresCategory(t *testing.T) {
	h := NewCatalogHandler(&stubCatalogService{})

	rec := httptest.NewRecorder()
	h.Streams(rec, httptest.NewRequest(http.MethodGet, "/api/streams?type=movie", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without category, got %d", rec.Code)
	}
}

func TestDetailPassesPayloadThrough(t *testing.T) {
	payload := json.RawMessage(`{"info":{"name":"Inception"}}`)
	h := NewCatalogHandler(&stubCatalogService{detail: payload})

	req := httptest.NewRequest(http.MethodGet, "/api/details/movie/200", nil)
	req = mux.SetURLVars(req, map[string]string{"kind": "movie", "id": "200"})
	rec := httptest.NewRecorder()
	h.Detail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != string(payload) {
		t.Fatalf("expected verbatim payload, got %s", rec.Body.String())
	}
}

func TestDetailRemoteFailure(t *testing.T) {
	h := NewCatalogHandler(&stubCatalogService{detailErr: errors.New("provider down")})

	req := httptest.NewRequest(http.MethodGet, "/api/details/series/300", nil)
	req = mux.SetURLVars(req, map[string]string{"kind": "series", "id": "300"})
	rec := httptest.NewRecorder()
	h.Detail(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestDetailUnknownKind(t *testing.T) {
	h := NewCatalogHandler(&stubCatalogService{})

	req := httptest.NewRequest(http.MethodGet, "/api/details/live/1", nil)
	req = mux.SetURLVars(req, map[string]string{"kind": "live", "id": "1"})
	rec := httptest.NewRecorder()
	h.Detail(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
