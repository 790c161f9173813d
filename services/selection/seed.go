// Package selection builds the deterministic daily home-screen rows: seeded
// carousel configs, provider cross-matching against the local catalog, and
// hero picks, all cached per calendar day.
package selection

import (
	"fmt"
	"time"
)

// DailySeed derives a stable integer from the calendar date of t. The same
// day always yields the same seed; consecutive days differ.
func DailySeed(t time.Time) int64 {
	dateString := fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day())
	var hash int32
	for _, c := range dateString {
		hash = hash*31 + int32(c)
	}
	if hash < 0 {
		hash = -hash
	}
	return int64(hash)
}

// DateKey formats t as the cache key date component.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// seededRandom is a linear congruential generator in [0,1). Numerical
// recipes constants; good enough for shuffling, not for anything else.
func seededRandom(seed int64) float64 {
	next := (seed*1664525 + 1013904223) & 0x7fffffff
	return float64(next) / float64(1<<31)
}

// SeededShuffle returns a Fisher-Yates shuffled copy of items. The generator
// advances once per swap, so identical (order, seed) inputs always produce
// the identical output order.
func SeededShuffle[T any](items []T, seed int64) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)

	current := seed
	for i := len(shuffled) - 1; i > 0; i-- {
		j := int(seededRandom(current) * float64(i+1))
		current++
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
