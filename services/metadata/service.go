// Package metadata implements the external metadata provider (TMDB) with a
// store-backed response cache. Cached entries live 24 hours; when the remote
// is unreachable an expired entry is deliberately served as a last resort.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"streamvault/internal/database"
	"streamvault/models"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("metadata: provider not configured")

// responseCache is the slice of the persistent store the provider needs.
type responseCache interface {
	PutMetadataCache(key string, payload []byte) error
	GetMetadataCache(key string) (database.CacheEntry, error)
}

// Service is the metadata provider.
type Service struct {
	tmdb  *tmdbClient
	cache responseCache
	ttl   time.Duration
}

// NewService creates the provider. An empty apiKey leaves it unconfigured;
// selection then falls back to locally cached content.
func NewService(apiKey, language string, cache responseCache, ttlHours int) *Service {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &Service{
		tmdb:  newTMDBClient(apiKey, language, &http.Client{Timeout: tmdbTimeout}),
		cache: cache,
		ttl:   time.Duration(ttlHours) * time.Hour,
	}
}

// Configured reports whether an API key is present.
func (s *Service) Configured() bool {
	return s.tmdb.apiKey != ""
}

// fetchWithCache returns the body for endpoint+params, preferring a fresh
// cache entry, then the network, then a stale cache entry as degraded
// fallback. Cache write failures are logged and non-fatal.
func (s *Service) fetchWithCache(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	key := cacheKey(endpoint, params)

	cached, cacheErr := s.cache.GetMetadataCache(key)
	if cacheErr == nil {
		if time.Since(time.UnixMilli(cached.FetchedAt)) < s.ttl {
			return cached.Payload, nil
		}
	}

	body, err := s.tmdb.get(ctx, endpoint, params)
	if err != nil {
		if cacheErr == nil {
			// Stale beats nothing.
			log.Printf("[metadata] serving stale cache for %s after fetch failure: %v", endpoint, err)
			return cached.Payload, nil
		}
		return nil, err
	}

	if err := s.cache.PutMetadataCache(key, body); err != nil {
		log.Printf("[metadata] cache write failed for %s: %v", key, err)
	}
	return body, nil
}

func (s *Service) fetchItems(ctx context.Context, endpoint string, params map[string]string, tv bool) ([]models.MetadataItem, error) {
	body, err := s.fetchWithCache(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Results []models.MetadataItem `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	items := envelope.Results
	for i := range items {
		// Resolve the movie/TV variant once at ingestion instead of
		// re-sniffing field presence on every access.
		switch items[i].MediaType {
		case "tv":
			items[i].IsTV = true
		case "movie":
			items[i].IsTV = false
		default:
			items[i].IsTV = tv || (items[i].Name != "" && items[i].Title == "")
		}
	}
	return items, nil
}

// MovieGenres returns the provider's movie genre list.
func (s *Service) MovieGenres(ctx context.Context) ([]models.Genre, error) {
	return s.fetchGenres(ctx, "/genre/movie/list")
}

// TVGenres returns the provider's TV genre list.
func (s *Service) TVGenres(ctx context.Context) ([]models.Genre, error) {
	return s.fetchGenres(ctx, "/genre/tv/list")
}

func (s *Service) fetchGenres(ctx context.Context, endpoint string) ([]models.Genre, error) {
	body, err := s.fetchWithCache(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Genres []models.Genre `json:"genres"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode genres: %w", err)
	}
	return envelope.Genres, nil
}

// DiscoverMoviesByYear returns popular movies first released in year.
func (s *Service) DiscoverMoviesByYear(ctx context.Context, year, page int) ([]models.MetadataItem, error) {
	return s.fetchItems(ctx, "/discover/movie", map[string]string{
		"primary_release_year": strconv.Itoa(year),
		"sort_by":              "popularity.desc",
		"page":                 strconv.Itoa(page),
	}, false)
}

// DiscoverMoviesByGenre returns popular movies for one genre.
func (s *Service) DiscoverMoviesByGenre(ctx context.Context, genreID, page int) ([]models.MetadataItem, error) {
	return s.fetchItems(ctx, "/discover/movie", map[string]string{
		"with_genres": strconv.Itoa(genreID),
		"sort_by":     "popularity.desc",
		"page":        strconv.Itoa(page),
	}, false)
}

// DiscoverTVByGenre returns popular TV shows for one genre.
func (s *Service) DiscoverTVByGenre(ctx context.Context, genreID, page int) ([]models.MetadataItem, error) {
	return s.fetchItems(ctx, "/discover/tv", map[string]string{
		"with_genres": strconv.Itoa(genreID),
		"sort_by":     "popularity.desc",
		"page":        strconv.Itoa(page),
	}, true)
}

// Trending returns today's mixed trending feed.
func (s *Service) Trending(ctx context.Context, page int) ([]models.MetadataItem, error) {
	return s.fetchItems(ctx, "/trending/all/day", map[string]string{
		"page": strconv.Itoa(page),
	}, false)
}

// SearchMovie returns the most relevant movie for a query, or nil.
func (s *Service) SearchMovie(ctx context.Context, query string) (*models.MetadataItem, error) {
	return s.searchFirst(ctx, "/search/movie", query, false)
}

// SearchTV returns the most relevant TV show for a query, or nil.
func (s *Service) SearchTV(ctx context.Context, query string) (*models.MetadataItem, error) {
	return s.searchFirst(ctx, "/search/tv", query, true)
}

func (s *Service) searchFirst(ctx context.Context, endpoint, query string, tv bool) (*models.MetadataItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	items, err := s.fetchItems(ctx, endpoint, map[string]string{"query": query, "page": "1"}, tv)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// Videos returns trailer/teaser assets for one title.
func (s *Service) Videos(ctx context.Context, tv bool, id int64) ([]models.Video, error) {
	kind := "movie"
	if tv {
		kind = "tv"
	}
	body, err := s.fetchWithCache(ctx, fmt.Sprintf("/%s/%d/videos", kind, id), nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Results []models.Video `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode videos: %w", err)
	}
	return envelope.Results, nil
}

// ImageURL converts a provider image path into a full URL; empty path in,
// empty string out.
func ImageURL(path string) string {
	if path == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/w500" + path
}
