package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"streamvault/models"
)

// catalogService is the read surface of the catalog the HTTP layer exposes.
type catalogService interface {
	Categories(models.ContentType) ([]models.Category, error)
	StreamsByCategory(string, models.ContentType) ([]models.StreamEntry, error)
	AllStreams(models.ContentType) ([]models.StreamEntry, error)
	MovieDetail(ctx context.Context, id string) (json.RawMessage, error)
	SeriesDetail(ctx context.Context, id string) (json.RawMessage, error)
}

type CatalogHandler struct {
	Service  catalogService
	collator *collate.Collator
}

func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{
		Service: service,
		// Loose comparison so accented category names sort next to their
		// unaccented spellings.
		collator: collate.New(language.Und, collate.Loose),
	}
}

// Categories returns the cached categories for a type, sorted by name.
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	contentType, ok := parseContentType(r.URL.Query().Get("type"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown content type")
		return
	}

	categories, err := h.Service.Categories(contentType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return h.collator.CompareString(categories[i].CategoryName, categories[j].CategoryName) < 0
	})

	writeJSON(w, categories)
}

// Streams returns the cached streams of one category.
func (h *CatalogHandler) Streams(w http.ResponseWriter, r *http.Request) {
	categoryID := strings.TrimSpace(r.URL.Query().Get("category"))
	if categoryID == "" {
		writeError(w, http.StatusBadRequest, "category is required")
		return
	}
	contentType, ok := parseContentType(r.URL.Query().Get("type"))
	if !ok || contentType == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}

	streams, err := h.Service.StreamsByCategory(categoryID, contentType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, streams)
}

// AllStreams returns every cached stream, optionally filtered by type.
func (h *CatalogHandler) AllStreams(w http.ResponseWriter, r *http.Request) {
	contentType, ok := parseContentType(r.URL.Query().Get("type"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown content type")
		return
	}

	streams, err := h.Service.AllStreams(contentType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, streams)
}

// Detail serves the provider detail payload for one movie or series,
// fetching it lazily on first view.
func (h *CatalogHandler) Detail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	var payload json.RawMessage
	var err error
	switch vars["kind"] {
	case "movie":
		payload, err = h.Service.MovieDetail(r.Context(), id)
	case "series":
		payload, err = h.Service.SeriesDetail(r.Context(), id)
	default:
		writeError(w, http.StatusBadRequest, "kind must be movie or series")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// parseContentType maps the ?type= query value; empty means "all".
func parseContentType(raw string) (models.ContentType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", true
	case "live":
		return models.ContentLive, true
	case "movie", "vod":
		return models.ContentMovie, true
	case "series":
		return models.ContentSeries, true
	}
	return "", false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
