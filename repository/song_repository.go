package repository

import (
	"database/sql"
	"fmt"
	"time"

	"soundwave/model"
)

// SongRepository defines the interface for song data operations.
type SongRepository interface {
	CreateSong(song *model.Song) (int64, error)
	GetSongByID(id int64) (*model.Song, error)
	GetAllSongs() ([]*model.Song, error)
	UpdateSongCoverArt(songID int64, coverArt string) error
	DeleteSong(id int64) error
}

// mysqlSongRepository implements SongRepository for MySQL.
type mysqlSongRepository struct {
	db *sql.DB
}

// NewMySQLSongRepository creates a new mysqlSongRepository.
func NewMySQLSongRepository(db *sql.DB) SongRepository {
	return &mysqlSongRepository{db: db}
}

const songColumns = "id, title, artist, album, duration, cover_art, file_name, created_at, updated_at"

func scanSong(row interface{ Scan(...interface{}) error }) (*model.Song, error) {
	song := &model.Song{}
	err := row.Scan(&song.ID, &song.Title, &song.Artist, &song.Album, &song.Duration, &song.CoverArt, &song.FileName, &song.CreatedAt, &song.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return song, nil
}

// CreateSong adds a new song to the catalog.
func (r *mysqlSongRepository) CreateSong(song *model.Song) (int64, error) {
	query := `INSERT INTO songs (title, artist, album, duration, cover_art, file_name, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateSong: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.Exec(song.Title, song.Artist, song.Album, song.Duration, song.CoverArt, song.FileName, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateSong: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateSong: %w", err)
	}
	return id, nil
}

// GetSongByID retrieves a song by its ID. Returns (nil, nil) when no song matches.
func (r *mysqlSongRepository) GetSongByID(id int64) (*model.Song, error) {
	query := "SELECT " + songColumns + " FROM songs WHERE id = ?"
	song, err := scanSong(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Song not found
		}
		return nil, fmt.Errorf("failed to scan song by ID %d: %w", id, err)
	}
	return song, nil
}

// GetAllSongs retrieves every song in the catalog, order unspecified.
func (r *mysqlSongRepository) GetAllSongs() ([]*model.Song, error) {
	query := "SELECT " + songColumns + " FROM songs"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song in GetAllSongs: %w", err)
		}
		songs = append(songs, song)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetAllSongs: %w", err)
	}

	return songs, nil
}

// UpdateSongCoverArt updates the cover art reference for a given song ID.
func (r *mysqlSongRepository) UpdateSongCoverArt(songID int64, coverArt string) error {
	query := `UPDATE songs SET cover_art = ?, updated_at = ? WHERE id = ?`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for UpdateSongCoverArt: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(coverArt, time.Now(), songID)
	if err != nil {
		return fmt.Errorf("failed to execute UpdateSongCoverArt for song ID %d: %w", songID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for UpdateSongCoverArt: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSong removes a song from the catalog. Playlists referencing it are
// left untouched; their references simply dangle.
func (r *mysqlSongRepository) DeleteSong(id int64) error {
	res, err := r.db.Exec("DELETE FROM songs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to execute DeleteSong for ID %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for DeleteSong: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
