package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"soundwave/model"
)

func TestSongEndpoints(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		env := newTestEnv()
		env.songs.CreateSong(&model.Song{Title: "One", Artist: "A", FileName: "one.mp3"})
		env.songs.CreateSong(&model.Song{Title: "Two", Artist: "B", FileName: "two.mp3"})

		req := httptest.NewRequest(http.MethodGet, "/api/songs", nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var songs []model.Song
		if err := json.Unmarshal(rec.Body.Bytes(), &songs); err != nil {
			t.Fatalf("failed to decode song list: %v", err)
		}
		if len(songs) != 2 {
			t.Errorf("expected 2 songs, got %d", len(songs))
		}
	})

	t.Run("List Storage Failure", func(t *testing.T) {
		env := newTestEnv()
		env.songs.err = errors.New("connection lost")

		req := httptest.NewRequest(http.MethodGet, "/api/songs", nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		// The body is a generic message only.
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode error body: %v", err)
		}
		if body["message"] != "Server error" {
			t.Errorf("expected generic server error message, got %q", body["message"])
		}
	})

	t.Run("Metadata", func(t *testing.T) {
		env := newTestEnv()
		env.songs.CreateSong(&model.Song{
			Title:    "Song",
			Artist:   "Artist",
			Album:    "Album",
			Duration: 183.5,
			CoverArt: "/static/covers/1.jpg",
			FileName: "song.mp3",
		})

		req := httptest.NewRequest(http.MethodGet, "/api/songs/metadata/1", nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var meta model.SongMetadata
		if err := json.Unmarshal(rec.Body.Bytes(), &meta); err != nil {
			t.Fatalf("failed to decode metadata: %v", err)
		}
		if meta.Title != "Song" || meta.Artist != "Artist" || meta.Album != "Album" {
			t.Errorf("unexpected metadata %+v", meta)
		}
		if meta.Duration != 183.5 {
			t.Errorf("expected duration 183.5, got %f", meta.Duration)
		}

		// The file name must not leak through the metadata endpoint.
		if strings.Contains(rec.Body.String(), "song.mp3") {
			t.Error("metadata response leaked the file name")
		}
	})

	t.Run("Metadata Not Found", func(t *testing.T) {
		env := newTestEnv()

		req := httptest.NewRequest(http.MethodGet, "/api/songs/metadata/9", nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("Create Requires Auth", func(t *testing.T) {
		env := newTestEnv()

		body := `{"title": "New", "fileName": "new.mp3"}`
		req := httptest.NewRequest(http.MethodPost, "/api/songs", strings.NewReader(body))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401 without a session or token, got %d", rec.Code)
		}
	})

	t.Run("Create With Bearer Token", func(t *testing.T) {
		env := newTestEnv()
		token, err := env.handler.authService.Tokens.Issue(1, "admin")
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		body := `{"title": "New", "artist": "X", "duration": 10, "fileName": "new.mp3"}`
		req := httptest.NewRequest(http.MethodPost, "/api/songs", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var created model.Song
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("failed to decode created song: %v", err)
		}
		if created.ID == 0 {
			t.Error("expected a generated identifier")
		}
	})

	t.Run("Create Rejects Path Escape", func(t *testing.T) {
		env := newTestEnv()
		token, _ := env.handler.authService.Tokens.Issue(1, "admin")

		body := `{"title": "Evil", "fileName": "../../etc/passwd"}`
		req := httptest.NewRequest(http.MethodPost, "/api/songs", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for path escape, got %d", rec.Code)
		}
	})

	t.Run("Delete Missing Song", func(t *testing.T) {
		env := newTestEnv()
		token, _ := env.handler.authService.Tokens.Issue(1, "admin")

		req := httptest.NewRequest(http.MethodDelete, "/api/songs/42", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}
