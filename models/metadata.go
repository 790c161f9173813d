package models

// Genre is a metadata-provider genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MetadataItem is a movie or TV item from the metadata provider. Movies carry
// Title/ReleaseDate, TV carries Name/FirstAirDate; the tagged IsTV field is
// resolved once when the response is decoded.
type MetadataItem struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
	Overview     string  `json:"overview,omitempty"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
	GenreIDs     []int   `json:"genre_ids,omitempty"`
	MediaType    string  `json:"media_type,omitempty"`
	IsTV         bool    `json:"-"`
}

// DisplayTitle returns the movie title or TV name, whichever is set.
func (m MetadataItem) DisplayTitle() string {
	if m.IsTV {
		if m.Name != "" {
			return m.Name
		}
		return m.Title
	}
	if m.Title != "" {
		return m.Title
	}
	return m.Name
}

// AirDate returns the release date for movies, first air date for TV.
func (m MetadataItem) AirDate() string {
	if m.IsTV {
		return m.FirstAirDate
	}
	return m.ReleaseDate
}

// Video is a provider video asset (trailer, teaser).
type Video struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}
