// Package match cross-references externally sourced titles against the local
// catalog with normalized approximate string matching. Everything here is a
// pure function and safe to call from concurrent selection tasks.
package match

import (
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultThreshold is the similarity floor for accepting a match.
const DefaultThreshold = 0.85

// lengthPruneLimit skips the Levenshtein computation when normalized lengths
// differ by more than this. A speed heuristic, not a proven similarity bound:
// at low thresholds it can produce false negatives.
const lengthPruneLimit = 5

// Prepared carries an item together with its precomputed normalized title.
// Normalize once, match many times.
type Prepared[T any] struct {
	Normalized string
	Item       T
}

// Prepare precomputes normalized titles for a candidate collection. Callers
// must reuse the result across repeated BestMatch calls against the same
// collection.
func Prepare[T any](items []T, title func(T) string) []Prepared[T] {
	out := make([]Prepared[T], len(items))
	for i, item := range items {
		out[i] = Prepared[T]{Normalized: NormalizeTitle(title(item)), Item: item}
	}
	return out
}

// Similarity scores two already-normalized strings in [0,1] using Levenshtein
// distance over max length. Two empty strings are identical.
func Similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1.0
	}
	distance := fuzzy.LevenshteinDistance(a, b)
	return 1.0 - float64(distance)/float64(longest)
}

// BestMatch finds the candidate whose normalized title best matches target,
// returning ok=false when nothing reaches the threshold. Exact normalized
// equality short-circuits at score 1.0; ties resolve to the first candidate
// in iteration order.
func BestMatch[T any](target string, candidates []Prepared[T], threshold float64) (match T, score float64, ok bool) {
	normalizedTarget := NormalizeTitle(target)
	targetLen := utf8.RuneCountInString(normalizedTarget)

	var best T
	bestScore := 0.0
	found := false

	for _, c := range candidates {
		if normalizedTarget == c.Normalized {
			return c.Item, 1.0, true
		}

		diff := targetLen - utf8.RuneCountInString(c.Normalized)
		if diff < 0 {
			diff = -diff
		}
		if diff > lengthPruneLimit {
			continue
		}

		if s := Similarity(normalizedTarget, c.Normalized); s > bestScore {
			bestScore = s
			best = c.Item
			found = true
		}
	}

	if !found || bestScore < threshold {
		return match, 0, false
	}
	return best, bestScore, true
}
