package metadata

import "testing"

func TestNormalizeLanguage(t *testing.T) {
	tests := map[string]string{
		"":      "en-US",
		"en":    "en-US",
		"en_US": "en-US",
		"pt":    "pt-BR",
		"pt-br": "pt-BR",
		"fr-FR": "fr-FR",
		"de":    "de-DE",
	}
	for input, expect := range tests {
		if got := normalizeLanguage(input); got != expect {
			t.Fatalf("normalizeLanguage(%q) = %q, want %q", input, got, expect)
		}
	}
}

func TestCacheKeySortsParams(t *testing.T) {
	a := cacheKey("/discover/movie", map[string]string{"page": "1", "with_genres": "28"})
	b := cacheKey("/discover/movie", map[string]string{"with_genres": "28", "page": "1"})
	if a != b {
		t.Fatalf("param order changed the key: %q vs %q", a, b)
	}
	if a != "tmdb:/discover/movie:page=1&with_genres=28" {
		t.Fatalf("unexpected key shape: %q", a)
	}
}

func TestCacheKeyNoParams(t *testing.T) {
	if got := cacheKey("/genre/movie/list", nil); got != "tmdb:/genre/movie/list:" {
		t.Fatalf("unexpected key: %q", got)
	}
}

func TestImageURL(t *testing.T) {
	if got := ImageURL(""); got != "" {
		t.Fatalf("expected empty url for empty path, got %q", got)
	}
	if got := ImageURL("/poster.jpg"); got != "https://image.tmdb.org/t/p/w500/poster.jpg" {
		t.Fatalf("unexpected url: %q", got)
	}
}
