package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"soundwave/logger"
	"soundwave/model"
	"soundwave/repository"
	"soundwave/storage"

	"github.com/gorilla/mux"
)

// ListSongsHandler returns every song in the catalog.
func (h *APIHandler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.songRepo.GetAllSongs()
	if err != nil {
		logger.Error("Failed to list songs", logger.ErrorField(err))
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	respondJSON(w, http.StatusOK, songs)
}

// SongMetadataHandler returns the metadata projection for one song.
func (h *APIHandler) SongMetadataHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	song, err := h.songRepo.GetSongByID(id)
	if err != nil {
		logger.Error("Failed to get song", logger.Int64("songId", id), logger.ErrorField(err))
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	if song == nil {
		respondMessage(w, http.StatusNotFound, "Song not found")
		return
	}

	respondJSON(w, http.StatusOK, song.Metadata())
}

// createSongRequest is the body for the song import endpoint.
type createSongRequest struct {
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album"`
	Duration float64 `json:"duration"`
	CoverArt string  `json:"coverArt"`
	FileName string  `json:"fileName"`
}

// CreateSongHandler imports a song record into the catalog. The referenced
// audio file is expected to already exist under the music directory.
func (h *APIHandler) CreateSongHandler(w http.ResponseWriter, r *http.Request) {
	var req createSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Title == "" || req.FileName == "" {
		respondMessage(w, http.StatusBadRequest, "Title and fileName are required")
		return
	}
	// Reject path escapes; fileName must stay inside the music directory.
	if req.FileName != filepath.Base(req.FileName) {
		respondMessage(w, http.StatusBadRequest, "Invalid fileName")
		return
	}

	song := &model.Song{
		Title:    req.Title,
		Artist:   req.Artist,
		Album:    req.Album,
		Duration: req.Duration,
		CoverArt: req.CoverArt,
		FileName: req.FileName,
	}

	id, err := h.songRepo.CreateSong(song)
	if err != nil {
		logger.Error("Failed to create song", logger.String("title", req.Title), logger.ErrorField(err))
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	song.ID = id

	created, err := h.songRepo.GetSongByID(id)
	if err != nil || created == nil {
		// The insert succeeded; fall back to the request view.
		respondJSON(w, http.StatusOK, song)
		return
	}
	respondJSON(w, http.StatusOK, created)
}

// DeleteSongHandler removes a song from the catalog. Playlist references to
// the deleted id are left dangling.
func (h *APIHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	if err := h.songRepo.DeleteSong(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, "Song not found")
			return
		}
		logger.Error("Failed to delete song", logger.Int64("songId", id), logger.ErrorField(err))
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondMessage(w, http.StatusOK, "Song deleted successfully")
}

// UploadCoverHandler stores cover art for a song in object storage and
// updates the song record to reference it.
// Expected multipart form field: coverFile (JPEG or PNG).
func (h *APIHandler) UploadCoverHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	song, err := h.songRepo.GetSongByID(id)
	if err != nil {
		logger.Error("Failed to get song", logger.Int64("songId", id), logger.ErrorField(err))
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	if song == nil {
		respondMessage(w, http.StatusNotFound, "Song not found")
		return
	}

	if err := r.ParseMultipartForm(8 << 20); err != nil { // 8MB max memory
		respondMessage(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}

	coverFile, coverHeader, err := r.FormFile("coverFile")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Missing 'coverFile' in form")
		return
	}
	defer coverFile.Close()

	ext := strings.ToLower(filepath.Ext(coverHeader.Filename))
	contentType := "image/jpeg"
	if ext == ".png" {
		contentType = "image/png"
	}

	objectName := fmt.Sprintf("%d%s", id, ext)
	servePath, err := storage.UploadCover(r.Context(), h.cfg, objectName, coverFile, coverHeader.Size, contentType)
	if err != nil {
		logger.Error("Failed to upload cover art", logger.Int64("songId", id), logger.ErrorField(err))
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	if err := h.songRepo.UpdateSongCoverArt(id, servePath); err != nil {
		logger.Error("Failed to update cover art path", logger.Int64("songId", id), logger.ErrorField(err))
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	song.CoverArt = servePath
	respondJSON(w, http.StatusOK, song)
}
