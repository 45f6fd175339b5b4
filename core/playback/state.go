// Package playback holds the single process-wide playback record. The state
// is owned by one State instance injected into the handlers that need it; it
// is never persisted and resets to defaults on restart.
package playback

import (
	"math/rand"
	"sync"

	"soundwave/model"
)

// State is the playback-state holder. All mutation goes through the six
// operations below; each returns a snapshot of the resulting state. Song ids
// are taken at face value, none of the operations checks that a song exists.
type State struct {
	mu          sync.Mutex
	isPlaying   bool
	currentSong *int64
	queue       []int64
	repeatMode  bool
}

// NewState creates a stopped state with an empty queue.
func NewState() *State {
	return &State{queue: make([]int64, 0)}
}

// snapshot copies the state for returning outside the lock. Callers must
// hold mu.
func (s *State) snapshot() model.PlaybackState {
	queue := make([]int64, len(s.queue))
	copy(queue, s.queue)

	var current *int64
	if s.currentSong != nil {
		id := *s.currentSong
		current = &id
	}

	return model.PlaybackState{
		IsPlaying:   s.isPlaying,
		CurrentSong: current,
		Queue:       queue,
		RepeatMode:  s.repeatMode,
	}
}

// Play starts playback of the given song id.
func (s *State) Play(songID int64) model.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isPlaying = true
	s.currentSong = &songID
	return s.snapshot()
}

// Pause stops playback. The current song and queue are untouched.
func (s *State) Pause() model.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isPlaying = false
	return s.snapshot()
}

// Skip pops the front of the queue into the current song, or clears the
// current song when the queue is empty.
func (s *State) Skip() model.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		s.currentSong = nil
	} else {
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.currentSong = &next
	}
	return s.snapshot()
}

// Shuffle reorders the queue with a uniform Fisher-Yates permutation.
func (s *State) Shuffle() model.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	rand.Shuffle(len(s.queue), func(i, j int) {
		s.queue[i], s.queue[j] = s.queue[j], s.queue[i]
	})
	return s.snapshot()
}

// Repeat toggles repeat mode.
func (s *State) Repeat() model.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repeatMode = !s.repeatMode
	return s.snapshot()
}

// Enqueue appends a song id to the tail of the queue.
func (s *State) Enqueue(songID int64) model.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, songID)
	return s.snapshot()
}

// Snapshot returns the current state without mutating it.
func (s *State) Snapshot() model.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}
