package server

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"soundwave/logger"

	"github.com/gorilla/mux"
)

// StreamSongHandler streams the audio bytes of a song from the music
// directory. The whole file is sent on every request; range requests and
// seeking are not supported.
func (h *APIHandler) StreamSongHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	song, err := h.songRepo.GetSongByID(id)
	if err != nil {
		logger.Error("Failed to get song for streaming", logger.Int64("songId", id), logger.ErrorField(err))
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	if song == nil {
		respondMessage(w, http.StatusNotFound, "Song not found")
		return
	}

	filePath := filepath.Join(h.cfg.MusicDir, song.FileName)
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("Audio file missing on disk",
				logger.Int64("songId", id),
				logger.String("fileName", song.FileName))
			respondMessage(w, http.StatusNotFound, "File not found")
			return
		}
		logger.Error("Failed to open audio file", logger.String("path", filePath), logger.ErrorField(err))
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	if _, err := io.Copy(w, file); err != nil {
		// Headers are gone at this point; just log the broken stream.
		logger.Warn("Error streaming audio file",
			logger.Int64("songId", id),
			logger.ErrorField(err))
	}
}
