package model

import "time"

// Playlist is an ordered list of song ids under a name. Song references are
// weak: duplicates and ids of deleted songs are allowed and never validated.
type Playlist struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Songs     []int64   `json:"songs"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PlaylistPatch enumerates the updatable playlist fields. A nil field is
// left untouched; a present field replaces the stored value wholesale.
type PlaylistPatch struct {
	Name  *string  `json:"name"`
	Songs *[]int64 `json:"songs"`
}
