package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"soundwave/model"
)

// PlaylistRepository defines the interface for playlist data operations.
type PlaylistRepository interface {
	CreatePlaylist(name string, songs []int64) (*model.Playlist, error)
	GetPlaylistByID(id int64) (*model.Playlist, error)
	GetAllPlaylists() ([]*model.Playlist, error)
	ReplacePlaylist(id int64, patch model.PlaylistPatch) (*model.Playlist, error)
	DeletePlaylist(id int64) error
}

// mysqlPlaylistRepository implements PlaylistRepository for MySQL. The song
// id list is stored as a JSON column so order and duplicates are preserved
// exactly as submitted.
type mysqlPlaylistRepository struct {
	db *sql.DB
}

// NewMySQLPlaylistRepository creates a new mysqlPlaylistRepository.
func NewMySQLPlaylistRepository(db *sql.DB) PlaylistRepository {
	return &mysqlPlaylistRepository{db: db}
}

func encodeSongs(songs []int64) (string, error) {
	if songs == nil {
		songs = []int64{}
	}
	raw, err := json.Marshal(songs)
	if err != nil {
		return "", fmt.Errorf("failed to encode playlist songs: %w", err)
	}
	return string(raw), nil
}

func scanPlaylist(row interface{ Scan(...interface{}) error }) (*model.Playlist, error) {
	playlist := &model.Playlist{}
	var rawSongs string
	err := row.Scan(&playlist.ID, &playlist.Name, &rawSongs, &playlist.CreatedAt, &playlist.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(rawSongs), &playlist.Songs); err != nil {
		return nil, fmt.Errorf("failed to decode songs for playlist %d: %w", playlist.ID, err)
	}
	if playlist.Songs == nil {
		playlist.Songs = []int64{}
	}
	return playlist, nil
}

// CreatePlaylist persists a new playlist and returns it with its generated ID.
func (r *mysqlPlaylistRepository) CreatePlaylist(name string, songs []int64) (*model.Playlist, error) {
	encoded, err := encodeSongs(songs)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO playlists (name, songs, created_at, updated_at) VALUES (?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement for CreatePlaylist: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.Exec(name, encoded, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to execute CreatePlaylist: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID for CreatePlaylist: %w", err)
	}

	return r.GetPlaylistByID(id)
}

// GetPlaylistByID retrieves a playlist by its ID. Returns (nil, nil) when no
// playlist matches.
func (r *mysqlPlaylistRepository) GetPlaylistByID(id int64) (*model.Playlist, error) {
	query := `SELECT id, name, songs, created_at, updated_at FROM playlists WHERE id = ?`
	playlist, err := scanPlaylist(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Playlist not found
		}
		return nil, fmt.Errorf("failed to scan playlist by ID %d: %w", id, err)
	}
	return playlist, nil
}

// GetAllPlaylists retrieves every playlist.
func (r *mysqlPlaylistRepository) GetAllPlaylists() ([]*model.Playlist, error) {
	query := `SELECT id, name, songs, created_at, updated_at FROM playlists`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := make([]*model.Playlist, 0)
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist in GetAllPlaylists: %w", err)
		}
		playlists = append(playlists, playlist)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetAllPlaylists: %w", err)
	}

	return playlists, nil
}

// ReplacePlaylist overwrites the fields present in the patch and returns the
// updated playlist. Fields absent from the patch keep their stored value;
// present fields are replaced wholesale, not merged. Concurrent writers to
// the same playlist race with last-write-wins at the document level.
func (r *mysqlPlaylistRepository) ReplacePlaylist(id int64, patch model.PlaylistPatch) (*model.Playlist, error) {
	existing, err := r.GetPlaylistByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	name := existing.Name
	if patch.Name != nil {
		name = *patch.Name
	}
	songs := existing.Songs
	if patch.Songs != nil {
		songs = *patch.Songs
	}

	encoded, err := encodeSongs(songs)
	if err != nil {
		return nil, err
	}

	query := `UPDATE playlists SET name = ?, songs = ?, updated_at = ? WHERE id = ?`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement for ReplacePlaylist: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(name, encoded, time.Now(), id); err != nil {
		return nil, fmt.Errorf("failed to execute ReplacePlaylist for ID %d: %w", id, err)
	}

	return r.GetPlaylistByID(id)
}

// DeletePlaylist removes a playlist.
func (r *mysqlPlaylistRepository) DeletePlaylist(id int64) error {
	res, err := r.db.Exec("DELETE FROM playlists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to execute DeletePlaylist for ID %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for DeletePlaylist: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
