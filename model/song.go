package model

import "time"

// Song represents a track in the music catalog. Songs are created by the
// import path and treated as immutable afterwards.
type Song struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album"`
	Duration  float64   `json:"duration"` // seconds
	CoverArt  string    `json:"coverArt"` // URL or relative path to cover art
	FileName  string    `json:"-"`        // on-disk audio file, not exposed in API responses
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SongMetadata is the projection returned by the metadata endpoint.
type SongMetadata struct {
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album"`
	Duration float64 `json:"duration"`
	CoverArt string  `json:"coverArt"`
}

// Metadata returns the metadata projection of the song.
func (s *Song) Metadata() SongMetadata {
	return SongMetadata{
		Title:    s.Title,
		Artist:   s.Artist,
		Album:    s.Album,
		Duration: s.Duration,
		CoverArt: s.CoverArt,
	}
}
