package models

// WatchProgressRecord is one playback position. Movies are keyed by StreamID;
// series records carry episode identity and are keyed by SeriesID in the
// summary view.
type WatchProgressRecord struct {
	StreamID   string      `json:"streamId"`
	Type       ContentType `json:"type"` // movie or series
	Progress   float64     `json:"progress"` // seconds
	Duration   float64     `json:"duration"` // seconds
	UpdatedAt  int64       `json:"timestamp"` // epoch millis
	Name       string      `json:"name"`
	Image      string      `json:"image,omitempty"`
	EpisodeID  string      `json:"episodeId,omitempty"`
	SeriesID   string      `json:"seriesId,omitempty"`
	SeasonNum  int         `json:"seasonNum,omitempty"`
	EpisodeNum int         `json:"episodeNum,omitempty"`
}

// ContentID returns the summary-map key for the record: the series id for
// series, the stream id otherwise.
func (r WatchProgressRecord) ContentID() string {
	if r.Type == ContentSeries && r.SeriesID != "" {
		return r.SeriesID
	}
	return r.StreamID
}

// GranularID is the key inside a per-series detail bucket.
func (r WatchProgressRecord) GranularID() string {
	if r.EpisodeID != "" {
		return r.EpisodeID
	}
	return r.StreamID
}
