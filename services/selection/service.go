package selection

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"streamvault/internal/database"
	"streamvault/models"
	"streamvault/services/match"
	"streamvault/services/metadata"
)

// maxItemsPerCarousel caps how many cross-matched items one carousel keeps.
const maxItemsPerCarousel = 20

// heroCount is how many items a hero rotation holds.
const heroCount = 5

// resolveWorkers bounds concurrent provider lookups during a daily build.
const resolveWorkers = 4

// catalogReader is the slice of the catalog service selection reads from.
type catalogReader interface {
	AllStreams(models.ContentType) ([]models.StreamEntry, error)
}

// metadataProvider is the slice of the metadata service selection consumes.
type metadataProvider interface {
	Configured() bool
	MovieGenres(ctx context.Context) ([]models.Genre, error)
	TVGenres(ctx context.Context) ([]models.Genre, error)
	DiscoverMoviesByYear(ctx context.Context, year, page int) ([]models.MetadataItem, error)
	DiscoverMoviesByGenre(ctx context.Context, genreID, page int) ([]models.MetadataItem, error)
	DiscoverTVByGenre(ctx context.Context, genreID, page int) ([]models.MetadataItem, error)
	Trending(ctx context.Context, page int) ([]models.MetadataItem, error)
	Videos(ctx context.Context, tv bool, id int64) ([]models.Video, error)
}

// selectionCache persists resolved selections per context and date.
type selectionCache interface {
	PutDailySelection(context, dateKey string, payload []byte) error
	GetDailySelection(context, dateKey string) (database.SelectionEntry, error)
	PurgeExpiredDailySelections(currentKey string) error
}

// Service resolves the daily carousels and hero rotations. Resolution is
// deterministic within a calendar day and cached, so repeated calls are cheap.
type Service struct {
	catalog      catalogReader
	provider     metadataProvider
	cache        selectionCache
	maxCarousels int
	now          func() time.Time
}

// NewService creates the selection engine.
func NewService(catalog catalogReader, provider metadataProvider, cache selectionCache) *Service {
	return &Service{
		catalog:      catalog,
		provider:     provider,
		cache:        cache,
		maxCarousels: DefaultMaxCarousels,
		now:          time.Now,
	}
}

// localIndex is the prepared catalog snapshot one build matches against.
type localIndex struct {
	movies        []models.StreamEntry
	series        []models.StreamEntry
	movieMatches  []match.Prepared[models.StreamEntry]
	seriesMatches []match.Prepared[models.StreamEntry]
}

func (s *Service) buildLocalIndex() (*localIndex, error) {
	movies, err := s.catalog.AllStreams(models.ContentMovie)
	if err != nil {
		return nil, err
	}
	series, err := s.catalog.AllStreams(models.ContentSeries)
	if err != nil {
		return nil, err
	}
	entryName := func(e models.StreamEntry) string { return e.Name }
	return &localIndex{
		movies:        movies,
		series:        series,
		movieMatches:  match.Prepare(movies, entryName),
		seriesMatches: match.Prepare(series, entryName),
	}, nil
}

// SelectDailyContent returns the day's resolved carousels for a scope,
// building and caching them on first request. Empty carousels are dropped;
// provider trouble degrades a carousel to a local shuffle instead of failing
// the build.
func (s *Service) SelectDailyContent(ctx context.Context, scope string) ([]models.Carousel, models.Outcome, error) {
	now := s.now()
	dateKey := DateKey(now)
	cacheContext := "carousels-" + normalizeScope(scope)

	if entry, err := s.cache.GetDailySelection(cacheContext, dateKey); err == nil {
		var cached []models.Carousel
		if err := json.Unmarshal(entry.Payload, &cached); err == nil {
			return cached, models.OutcomeSuccess, nil
		}
		log.Printf("[selection] discarding unreadable cached selection for %s", cacheContext)
	}

	index, err := s.buildLocalIndex()
	if err != nil {
		return nil, models.OutcomeError, err
	}

	configs := s.dailyConfigs(ctx, now)

	resolved := make([]models.Carousel, len(configs))
	p := pool.New().WithMaxGoroutines(resolveWorkers)
	for i, cfg := range configs {
		i, cfg := i, cfg
		p.Go(func() {
			resolved[i] = s.resolveCarousel(ctx, cfg, index, now)
		})
	}
	p.Wait()

	carousels := make([]models.Carousel, 0, len(resolved))
	outcome := models.OutcomeSuccess
	for _, c := range resolved {
		if len(c.Items) == 0 {
			continue
		}
		if c.Outcome == models.OutcomeDegraded {
			outcome = models.OutcomeDegraded
		}
		carousels = append(carousels, c)
	}
	if len(carousels) == 0 {
		return nil, models.OutcomeEmpty, nil
	}

	if payload, err := json.Marshal(carousels); err == nil {
		if err := s.cache.PutDailySelection(cacheContext, dateKey, payload); err != nil {
			log.Printf("[selection] cache write failed for %s: %v", cacheContext, err)
		} else if err := s.cache.PurgeExpiredDailySelections(dateKey); err != nil {
			log.Printf("[selection] stale selection purge failed: %v", err)
		}
	}
	return carousels, outcome, nil
}

// dailyConfigs builds the day's carousel configs, falling back to the fixed
// rows alone when genre lists cannot be fetched.
func (s *Service) dailyConfigs(ctx context.Context, now time.Time) []models.CarouselConfig {
	var movieGenres, tvGenres []models.Genre
	if s.provider.Configured() {
		var err error
		if movieGenres, err = s.provider.MovieGenres(ctx); err != nil {
			log.Printf("[selection] movie genres unavailable: %v", err)
		}
		if tvGenres, err = s.provider.TVGenres(ctx); err != nil {
			log.Printf("[selection] tv genres unavailable: %v", err)
		}
	}
	return GenerateDailyCarousels(movieGenres, tvGenres, s.maxCarousels, now)
}

// resolveCarousel fills one config with items. Provider candidates are
// cross-matched against the local catalog; anything the user cannot actually
// play is dropped. Provider failure or absence degrades to a seeded local
// shuffle so the row still renders.
func (s *Service) resolveCarousel(ctx context.Context, cfg models.CarouselConfig, index *localIndex, now time.Time) models.Carousel {
	if !s.provider.Configured() {
		return s.localFallback(cfg, index, now)
	}

	candidates, err := s.fetchCandidates(ctx, cfg, now)
	if err != nil {
		log.Printf("[selection] carousel %s provider fetch failed: %v", cfg.ID, err)
		return s.localFallback(cfg, index, now)
	}

	seen := make(map[string]bool)
	items := make([]models.CarouselItem, 0, maxItemsPerCarousel)
	for _, cand := range candidates {
		if len(items) >= maxItemsPerCarousel {
			break
		}
		db := index.movieMatches
		contentType := models.ContentMovie
		if cand.IsTV {
			db = index.seriesMatches
			contentType = models.ContentSeries
		}
		entry, score, ok := match.BestMatch(cand.DisplayTitle(), db, match.DefaultThreshold)
		if !ok || seen[entry.ID] {
			continue
		}
		seen[entry.ID] = true
		items = append(items, carouselItemFromMetadata(entry, cand, contentType, score))
	}

	outcome := models.OutcomeSuccess
	if len(items) == 0 {
		outcome = models.OutcomeEmpty
	}
	return models.Carousel{Config: cfg, Items: items, Outcome: outcome}
}

func (s *Service) fetchCandidates(ctx context.Context, cfg models.CarouselConfig, now time.Time) ([]models.MetadataItem, error) {
	switch {
	case cfg.Kind == models.CarouselTrending:
		return s.provider.Trending(ctx, 1)
	case cfg.Kind == models.CarouselTV:
		return s.provider.DiscoverTVByGenre(ctx, cfg.GenreID, 1)
	case cfg.Year != 0:
		return s.provider.DiscoverMoviesByYear(ctx, cfg.Year, 1)
	default:
		return s.provider.DiscoverMoviesByGenre(ctx, cfg.GenreID, 1)
	}
}

// localFallback builds a carousel from a seeded shuffle of the cached catalog
// when the provider cannot contribute candidates.
func (s *Service) localFallback(cfg models.CarouselConfig, index *localIndex, now time.Time) models.Carousel {
	source := index.movies
	contentType := models.ContentMovie
	if cfg.Kind == models.CarouselTV {
		source = index.series
		contentType = models.ContentSeries
	} else if cfg.Kind == models.CarouselTrending {
		source = append(append([]models.StreamEntry{}, index.movies...), index.series...)
	}

	shuffled := SeededShuffle(source, DailySeed(now))
	items := make([]models.CarouselItem, 0, maxItemsPerCarousel)
	for _, entry := range shuffled {
		if len(items) >= maxItemsPerCarousel {
			break
		}
		ct := contentType
		if cfg.Kind == models.CarouselTrending {
			ct = entry.Type
		}
		items = append(items, carouselItemFromEntry(entry, ct))
	}

	outcome := models.OutcomeDegraded
	if len(items) == 0 {
		outcome = models.OutcomeEmpty
	}
	return models.Carousel{Config: cfg, Items: items, Outcome: outcome}
}

// SelectHeroItems returns the day's hero rotation for a scope ("all", "movie"
// or "series"): trending items that exist in the local catalog, topped up with
// a seeded local pick when trending yields fewer than five.
func (s *Service) SelectHeroItems(ctx context.Context, scope string) ([]models.CarouselItem, error) {
	now := s.now()
	scope = normalizeScope(scope)
	dateKey := DateKey(now)
	cacheContext := "hero-" + scope

	if entry, err := s.cache.GetDailySelection(cacheContext, dateKey); err == nil {
		var cached []models.CarouselItem
		if err := json.Unmarshal(entry.Payload, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	index, err := s.buildLocalIndex()
	if err != nil {
		return nil, err
	}

	var potential []models.CarouselItem
	if s.provider.Configured() {
		trending, err := s.provider.Trending(ctx, 1)
		if err != nil {
			log.Printf("[selection] hero trending fetch failed: %v", err)
		}
		for _, cand := range trending {
			if scope == "movie" && cand.IsTV {
				continue
			}
			if scope == "series" && !cand.IsTV {
				continue
			}
			if cand.BackdropPath == "" {
				continue
			}
			db := index.movieMatches
			contentType := models.ContentMovie
			if cand.IsTV {
				db = index.seriesMatches
				contentType = models.ContentSeries
			}
			entry, score, ok := match.BestMatch(cand.DisplayTitle(), db, match.DefaultThreshold)
			if !ok {
				continue
			}
			potential = append(potential, carouselItemFromMetadata(entry, cand, contentType, score))
		}
	}

	if len(potential) < heroCount {
		potential = s.fillHeroFromLocal(potential, index, scope, now)
	}

	unique := dedupeByID(potential)
	shuffled := SeededShuffle(unique, DailySeed(now)+heroPickOffset(scope))
	if len(shuffled) > heroCount {
		shuffled = shuffled[:heroCount]
	}

	if len(shuffled) > 0 {
		if payload, err := json.Marshal(shuffled); err == nil {
			if err := s.cache.PutDailySelection(cacheContext, dateKey, payload); err != nil {
				log.Printf("[selection] hero cache write failed: %v", err)
			}
		}
	}
	return shuffled, nil
}

// fillHeroFromLocal tops the hero pool up to five with a seeded shuffle of the
// local catalog, skipping entries already present and entries without any
// image to show.
func (s *Service) fillHeroFromLocal(potential []models.CarouselItem, index *localIndex, scope string, now time.Time) []models.CarouselItem {
	var local []models.StreamEntry
	switch scope {
	case "movie":
		local = index.movies
	case "series":
		local = index.series
	default:
		local = append(append([]models.StreamEntry{}, index.movies...), index.series...)
	}

	have := make(map[string]bool, len(potential))
	for _, item := range potential {
		have[item.ID] = true
	}

	for _, entry := range SeededShuffle(local, DailySeed(now)+heroFillOffset(scope)) {
		if len(potential) >= heroCount {
			break
		}
		if have[entry.ID] || entry.Icon == "" {
			continue
		}
		have[entry.ID] = true
		potential = append(potential, carouselItemFromEntry(entry, entry.Type))
	}
	return potential
}

// Trailer picks the playable trailer for a matched title: an official YouTube
// trailer when one exists, otherwise any trailer, otherwise a teaser. Returns
// nil without error when the provider has nothing usable.
func (s *Service) Trailer(ctx context.Context, contentType models.ContentType, metadataID int64) (*models.Video, error) {
	if !s.provider.Configured() {
		return nil, nil
	}
	videos, err := s.provider.Videos(ctx, contentType == models.ContentSeries, metadataID)
	if err != nil {
		return nil, err
	}
	pick := func(ok func(models.Video) bool) *models.Video {
		for i := range videos {
			if videos[i].Site == "YouTube" && ok(videos[i]) {
				return &videos[i]
			}
		}
		return nil
	}
	if v := pick(func(v models.Video) bool { return v.Type == "Trailer" && v.Official }); v != nil {
		return v, nil
	}
	if v := pick(func(v models.Video) bool { return v.Type == "Trailer" }); v != nil {
		return v, nil
	}
	return pick(func(v models.Video) bool { return v.Type == "Teaser" }), nil
}

func heroFillOffset(scope string) int64 {
	switch scope {
	case "movie":
		return 1
	case "series":
		return 2
	}
	return 0
}

func heroPickOffset(scope string) int64 {
	switch scope {
	case "movie":
		return 10
	case "series":
		return 20
	}
	return 0
}

func normalizeScope(scope string) string {
	switch strings.ToLower(scope) {
	case "movie", "movies":
		return "movie"
	case "series", "tv":
		return "series"
	}
	return "all"
}

func dedupeByID(items []models.CarouselItem) []models.CarouselItem {
	seen := make(map[string]bool, len(items))
	out := make([]models.CarouselItem, 0, len(items))
	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		out = append(out, item)
	}
	return out
}

func carouselItemFromMetadata(entry models.StreamEntry, cand models.MetadataItem, contentType models.ContentType, score float64) models.CarouselItem {
	return models.CarouselItem{
		ID:          entry.ID,
		MetadataID:  cand.ID,
		Title:       cand.DisplayTitle(),
		Description: cand.Overview,
		Poster:      metadata.ImageURL(cand.PosterPath),
		Backdrop:    metadata.ImageURL(cand.BackdropPath),
		Type:        contentType,
		Rating:      cand.VoteAverage,
		Year:        yearOf(cand.AirDate()),
		MatchScore:  score,
	}
}

func carouselItemFromEntry(entry models.StreamEntry, contentType models.ContentType) models.CarouselItem {
	rating, _ := strconv.ParseFloat(entry.Rating, 64)
	return models.CarouselItem{
		ID:     entry.ID,
		Title:  entry.Name,
		Poster: entry.Icon,
		Type:   contentType,
		Rating: rating,
	}
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
