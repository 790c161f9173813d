package selection

import (
	"fmt"
	"time"

	"streamvault/models"
)

// DefaultMaxCarousels is how many rows a daily build produces.
const DefaultMaxCarousels = 4

// GenerateDailyCarousels returns the day's carousel configs: two fixed rows
// plus genre rows taken from a seeded shuffle of every genre across both
// lists. Deterministic for a given day and genre set.
func GenerateDailyCarousels(movieGenres, tvGenres []models.Genre, max int, now time.Time) []models.CarouselConfig {
	seed := DailySeed(now)
	year := now.Year()

	fixed := []models.CarouselConfig{
		{ID: "new-releases", Title: "New Releases", Kind: models.CarouselMovie, Year: year},
		{ID: "trending", Title: "Trending Today", Kind: models.CarouselTrending},
	}

	pool := make([]models.CarouselConfig, 0, len(movieGenres)+len(tvGenres))
	for _, g := range movieGenres {
		pool = append(pool, models.CarouselConfig{
			ID:      fmt.Sprintf("movie-genre-%d", g.ID),
			Title:   fmt.Sprintf("%s Movies", g.Name),
			Kind:    models.CarouselMovie,
			GenreID: g.ID,
		})
	}
	for _, g := range tvGenres {
		pool = append(pool, models.CarouselConfig{
			ID:      fmt.Sprintf("tv-genre-%d", g.ID),
			Title:   fmt.Sprintf("%s Series", g.Name),
			Kind:    models.CarouselTV,
			GenreID: g.ID,
		})
	}

	remaining := max - len(fixed)
	if remaining < 0 {
		remaining = 0
	}
	shuffled := SeededShuffle(pool, seed)
	if remaining > len(shuffled) {
		remaining = len(shuffled)
	}
	return append(fixed, shuffled[:remaining]...)
}
