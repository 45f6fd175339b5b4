package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func doPlayback(t *testing.T, env *testEnv, op string, body string) (*httptest.ResponseRecorder, playbackResponse) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/playback/"+op, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var resp playbackResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode playback response: %v", err)
		}
	}
	return rec, resp
}

func TestPlaybackEndpoints(t *testing.T) {
	t.Run("Play", func(t *testing.T) {
		env := newTestEnv()

		// The song id is never validated against the catalog.
		rec, resp := doPlayback(t, env, "play", `{"songId": 123}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if resp.Message != "Playback started" {
			t.Errorf("unexpected message %q", resp.Message)
		}
		if !resp.PlaybackState.IsPlaying {
			t.Error("expected isPlaying=true")
		}
		if resp.PlaybackState.CurrentSong == nil || *resp.PlaybackState.CurrentSong != 123 {
			t.Errorf("expected currentSong=123, got %v", resp.PlaybackState.CurrentSong)
		}
	})

	t.Run("Play Invalid Body", func(t *testing.T) {
		env := newTestEnv()

		rec, _ := doPlayback(t, env, "play", `{"songId": "oops"`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Pause", func(t *testing.T) {
		env := newTestEnv()
		env.playback.Play(5)

		rec, resp := doPlayback(t, env, "pause", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if resp.PlaybackState.IsPlaying {
			t.Error("expected isPlaying=false")
		}
	})

	t.Run("Skip On Empty Queue", func(t *testing.T) {
		env := newTestEnv()
		env.playback.Play(5)

		rec, resp := doPlayback(t, env, "skip", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if resp.PlaybackState.CurrentSong != nil {
			t.Errorf("expected currentSong=null, got %v", resp.PlaybackState.CurrentSong)
		}

		// The null must survive JSON encoding as an explicit null.
		var raw map[string]json.RawMessage
		rec2, _ := doPlayback(t, env, "skip", "")
		if err := json.Unmarshal(rec2.Body.Bytes(), &raw); err != nil {
			t.Fatalf("failed to decode raw response: %v", err)
		}
		var state map[string]json.RawMessage
		if err := json.Unmarshal(raw["playbackState"], &state); err != nil {
			t.Fatalf("failed to decode playbackState: %v", err)
		}
		if string(state["currentSong"]) != "null" {
			t.Errorf("expected currentSong to encode as null, got %s", state["currentSong"])
		}
	})

	t.Run("Skip Pops Front", func(t *testing.T) {
		env := newTestEnv()
		env.playback.Enqueue(1)
		env.playback.Enqueue(2)

		_, resp := doPlayback(t, env, "skip", "")
		if resp.PlaybackState.CurrentSong == nil || *resp.PlaybackState.CurrentSong != 1 {
			t.Errorf("expected currentSong=1, got %v", resp.PlaybackState.CurrentSong)
		}
		if len(resp.PlaybackState.Queue) != 1 || resp.PlaybackState.Queue[0] != 2 {
			t.Errorf("expected queue [2], got %v", resp.PlaybackState.Queue)
		}
	})

	t.Run("Repeat Toggle", func(t *testing.T) {
		env := newTestEnv()

		_, first := doPlayback(t, env, "repeat", "")
		if !first.PlaybackState.RepeatMode {
			t.Error("expected repeat mode on")
		}
		_, second := doPlayback(t, env, "repeat", "")
		if second.PlaybackState.RepeatMode {
			t.Error("expected repeat mode off again")
		}
	})

	t.Run("Queue", func(t *testing.T) {
		env := newTestEnv()

		_, resp := doPlayback(t, env, "queue", `{"songId": 9}`)
		if resp.Message != "Song added to queue" {
			t.Errorf("unexpected message %q", resp.Message)
		}
		if len(resp.PlaybackState.Queue) != 1 || resp.PlaybackState.Queue[0] != 9 {
			t.Errorf("expected queue [9], got %v", resp.PlaybackState.Queue)
		}
	})

	t.Run("Shuffle Keeps Queue Contents", func(t *testing.T) {
		env := newTestEnv()
		for i := int64(1); i <= 6; i++ {
			env.playback.Enqueue(i)
		}

		_, resp := doPlayback(t, env, "shuffle", "")
		if len(resp.PlaybackState.Queue) != 6 {
			t.Fatalf("expected 6 queued ids, got %d", len(resp.PlaybackState.Queue))
		}
		seen := map[int64]bool{}
		for _, id := range resp.PlaybackState.Queue {
			seen[id] = true
		}
		for i := int64(1); i <= 6; i++ {
			if !seen[i] {
				t.Errorf("id %d missing after shuffle", i)
			}
		}
	})

	t.Run("Concurrent Queue Requests Lose Nothing", func(t *testing.T) {
		env := newTestEnv()
		const n = 32

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				body := fmt.Sprintf(`{"songId": %d}`, id)
				req := httptest.NewRequest(http.MethodPost, "/api/playback/queue", strings.NewReader(body))
				rec := httptest.NewRecorder()
				env.router.ServeHTTP(rec, req)
				if rec.Code != http.StatusOK {
					t.Errorf("enqueue %d: expected 200, got %d", id, rec.Code)
				}
			}(i)
		}
		wg.Wait()

		final := env.playback.Snapshot()
		if len(final.Queue) != n {
			t.Fatalf("expected %d queued ids, got %d", n, len(final.Queue))
		}
		seen := map[int64]bool{}
		for _, id := range final.Queue {
			seen[id] = true
		}
		for i := int64(0); i < n; i++ {
			if !seen[i] {
				t.Errorf("id %d was lost", i)
			}
		}
	})
}
