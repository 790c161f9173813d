package models

import "encoding/json"

// ContentType identifies which of the three catalog sections an entry belongs to.
type ContentType string

const (
	ContentLive   ContentType = "live"
	ContentMovie  ContentType = "movie"
	ContentSeries ContentType = "series"
)

// ContentTypes lists the sections in sync order.
var ContentTypes = []ContentType{ContentLive, ContentMovie, ContentSeries}

// Valid reports whether t is one of the known content types.
func (t ContentType) Valid() bool {
	switch t {
	case ContentLive, ContentMovie, ContentSeries:
		return true
	}
	return false
}

// Category is a provider category tagged with the section it was fetched for.
// category_id values are only unique per type, so the pair is the identity.
type Category struct {
	CategoryID   string      `json:"category_id"`
	CategoryName string      `json:"category_name"`
	ParentID     int         `json:"parent_id"`
	Type         ContentType `json:"type"`
}

// StreamEntry is one catalog item (channel, movie or series). Raw preserves
// the provider payload byte-for-byte; typed fields are extracted once at
// ingestion and never re-sniffed.
type StreamEntry struct {
	ID         string          `json:"id"`
	CategoryID string          `json:"category_id"`
	Name       string          `json:"name"`
	Type       ContentType     `json:"type"`
	Icon       string          `json:"icon,omitempty"`
	Rating     string          `json:"rating,omitempty"`
	Added      string          `json:"added,omitempty"`
	Raw        json.RawMessage `json:"data,omitempty"`
}

// DetailRecord caches a get_vod_info / get_series_info payload. Created on
// first detail view and immutable until the whole cache is cleared.
type DetailRecord struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

// SyncMetadata records when the last full sync completed. Kind is always
// "categories" today; kept as a key so further sync kinds stay additive.
type SyncMetadata struct {
	Kind     string `json:"type"`
	LastSync int64  `json:"lastSync"` // epoch millis
}

// SyncMetaCategories is the single sync metadata kind currently written.
const SyncMetaCategories = "categories"
