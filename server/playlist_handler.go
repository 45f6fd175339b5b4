package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"soundwave/logger"
	"soundwave/model"
	"soundwave/repository"

	"github.com/gorilla/mux"
)

// createPlaylistRequest is the body for playlist creation. Song references
// are taken as-is: duplicates and unknown ids are not validated.
type createPlaylistRequest struct {
	Name  string  `json:"name"`
	Songs []int64 `json:"songs"`
}

// ListPlaylistsHandler returns every playlist.
func (h *APIHandler) ListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.playlistRepo.GetAllPlaylists()
	if err != nil {
		logger.Error("Failed to list playlists", logger.ErrorField(err))
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	respondJSON(w, http.StatusOK, playlists)
}

// GetPlaylistHandler returns one playlist.
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}

	playlist, err := h.playlistRepo.GetPlaylistByID(id)
	if err != nil {
		logger.Error("Failed to get playlist", logger.Int64("playlistId", id), logger.ErrorField(err))
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	if playlist == nil {
		respondMessage(w, http.StatusNotFound, "Playlist not found")
		return
	}

	respondJSON(w, http.StatusOK, playlist)
}

// CreatePlaylistHandler persists a new playlist and returns it with its
// generated identifier.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	playlist, err := h.playlistRepo.CreatePlaylist(req.Name, req.Songs)
	if err != nil {
		logger.Error("Failed to create playlist", logger.String("name", req.Name), logger.ErrorField(err))
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, playlist)
}

// UpdatePlaylistHandler replaces the fields present in the request body on
// the stored playlist. A field omitted from the body keeps its stored value;
// a present field is replaced wholesale.
func (h *APIHandler) UpdatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}

	var patch model.PlaylistPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	playlist, err := h.playlistRepo.ReplacePlaylist(id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, "Playlist not found")
			return
		}
		logger.Error("Failed to update playlist", logger.Int64("playlistId", id), logger.ErrorField(err))
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, playlist)
}

// DeletePlaylistHandler removes a playlist.
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid playlist ID")
		return
	}

	if err := h.playlistRepo.DeletePlaylist(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, "Playlist not found")
			return
		}
		logger.Error("Failed to delete playlist", logger.Int64("playlistId", id), logger.ErrorField(err))
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondMessage(w, http.StatusOK, "Playlist deleted successfully")
}
