package models

// Outcome classifies how an operation resolved. Degraded paths are normal
// results here, not errors.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeEmpty    Outcome = "empty"
	OutcomeDegraded Outcome = "degraded"
	OutcomeError    Outcome = "error"
)

// CarouselKind selects the candidate source for a carousel.
type CarouselKind string

const (
	CarouselMovie    CarouselKind = "movie"
	CarouselTV       CarouselKind = "tv"
	CarouselTrending CarouselKind = "trending"
)

// CarouselConfig describes one promotional row before its content is resolved.
type CarouselConfig struct {
	ID      string       `json:"id"`
	Title   string       `json:"title"`
	Kind    CarouselKind `json:"type"`
	GenreID int          `json:"genreId,omitempty"`
	Year    int          `json:"year,omitempty"`
}

// CarouselItem is a metadata item that cross-matched a local catalog entry.
type CarouselItem struct {
	ID          string      `json:"id"` // matched local stream/series id
	MetadataID  int64       `json:"tmdbId,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Poster      string      `json:"poster,omitempty"`
	Backdrop    string      `json:"backdrop,omitempty"`
	Type        ContentType `json:"type"`
	Rating      float64     `json:"rating,omitempty"`
	Year        int         `json:"year,omitempty"`
	MatchScore  float64     `json:"score,omitempty"`
}

// Carousel is a resolved row: config plus matched items and how it resolved.
type Carousel struct {
	Config  CarouselConfig `json:"config"`
	Items   []CarouselItem `json:"items"`
	Outcome Outcome        `json:"outcome"`
}
