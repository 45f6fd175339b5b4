package server

import (
	"encoding/json"
	"net/http"

	"soundwave/logger"
	"soundwave/model"
)

// playbackRequest is the body for the play and queue operations.
type playbackRequest struct {
	SongID int64 `json:"songId"`
}

// playbackResponse wraps every playback operation result.
type playbackResponse struct {
	Message       string              `json:"message"`
	PlaybackState model.PlaybackState `json:"playbackState"`
}

func respondPlayback(w http.ResponseWriter, message string, state model.PlaybackState) {
	respondJSON(w, http.StatusOK, playbackResponse{Message: message, PlaybackState: state})
}

// PlayHandler starts playback of the submitted song id. The id is not
// checked against the catalog.
func (h *APIHandler) PlayHandler(w http.ResponseWriter, r *http.Request) {
	var req playbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state := h.playback.Play(req.SongID)
	logger.Debug("Playback started", logger.Int64("songId", req.SongID))
	respondPlayback(w, "Playback started", state)
}

// PauseHandler pauses playback.
func (h *APIHandler) PauseHandler(w http.ResponseWriter, r *http.Request) {
	respondPlayback(w, "Playback paused", h.playback.Pause())
}

// SkipHandler advances to the next queued song, or clears the current song
// when the queue is empty.
func (h *APIHandler) SkipHandler(w http.ResponseWriter, r *http.Request) {
	respondPlayback(w, "Song skipped", h.playback.Skip())
}

// ShuffleHandler reorders the queue with a uniform permutation.
func (h *APIHandler) ShuffleHandler(w http.ResponseWriter, r *http.Request) {
	respondPlayback(w, "Shuffle activated", h.playback.Shuffle())
}

// RepeatHandler toggles repeat mode.
func (h *APIHandler) RepeatHandler(w http.ResponseWriter, r *http.Request) {
	respondPlayback(w, "Repeat mode toggled", h.playback.Repeat())
}

// QueueHandler appends the submitted song id to the queue.
func (h *APIHandler) QueueHandler(w http.ResponseWriter, r *http.Request) {
	var req playbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state := h.playback.Enqueue(req.SongID)
	respondPlayback(w, "Song added to queue", state)
}
