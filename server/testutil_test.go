package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"soundwave/config"
	"soundwave/core/auth"
	"soundwave/core/playback"
	"soundwave/model"
	"soundwave/repository"

	"github.com/gorilla/mux"
)

// In-memory fakes standing in for the MySQL repositories and the Redis
// session store.

type fakeSongRepo struct {
	mu     sync.Mutex
	songs  map[int64]*model.Song
	nextID int64
	err    error // when set, every call fails with it
}

func newFakeSongRepo() *fakeSongRepo {
	return &fakeSongRepo{songs: map[int64]*model.Song{}, nextID: 1}
}

func (r *fakeSongRepo) CreateSong(song *model.Song) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	id := r.nextID
	r.nextID++
	stored := *song
	stored.ID = id
	r.songs[id] = &stored
	return id, nil
}

func (r *fakeSongRepo) GetSongByID(id int64) (*model.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	song, ok := r.songs[id]
	if !ok {
		return nil, nil
	}
	copied := *song
	return &copied, nil
}

func (r *fakeSongRepo) GetAllSongs() ([]*model.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	songs := make([]*model.Song, 0, len(r.songs))
	for _, song := range r.songs {
		copied := *song
		songs = append(songs, &copied)
	}
	return songs, nil
}

func (r *fakeSongRepo) UpdateSongCoverArt(songID int64, coverArt string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	song, ok := r.songs[songID]
	if !ok {
		return repository.ErrNotFound
	}
	song.CoverArt = coverArt
	return nil
}

func (r *fakeSongRepo) DeleteSong(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.songs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.songs, id)
	return nil
}

type fakePlaylistRepo struct {
	mu        sync.Mutex
	playlists map[int64]*model.Playlist
	nextID    int64
	err       error
}

func newFakePlaylistRepo() *fakePlaylistRepo {
	return &fakePlaylistRepo{playlists: map[int64]*model.Playlist{}, nextID: 1}
}

func (r *fakePlaylistRepo) CreatePlaylist(name string, songs []int64) (*model.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if songs == nil {
		songs = []int64{}
	}
	id := r.nextID
	r.nextID++
	now := time.Now()
	playlist := &model.Playlist{ID: id, Name: name, Songs: songs, CreatedAt: now, UpdatedAt: now}
	r.playlists[id] = playlist
	copied := *playlist
	return &copied, nil
}

func (r *fakePlaylistRepo) GetPlaylistByID(id int64) (*model.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	playlist, ok := r.playlists[id]
	if !ok {
		return nil, nil
	}
	copied := *playlist
	return &copied, nil
}

func (r *fakePlaylistRepo) GetAllPlaylists() ([]*model.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	playlists := make([]*model.Playlist, 0, len(r.playlists))
	for _, playlist := range r.playlists {
		copied := *playlist
		playlists = append(playlists, &copied)
	}
	return playlists, nil
}

func (r *fakePlaylistRepo) ReplacePlaylist(id int64, patch model.PlaylistPatch) (*model.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	playlist, ok := r.playlists[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Name != nil {
		playlist.Name = *patch.Name
	}
	if patch.Songs != nil {
		playlist.Songs = *patch.Songs
	}
	playlist.UpdatedAt = time.Now()
	copied := *playlist
	return &copied, nil
}

func (r *fakePlaylistRepo) DeletePlaylist(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.playlists[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.playlists, id)
	return nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*model.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*model.User{}, nextID: 1}
}

func (r *fakeUserRepo) CreateUser(user *model.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return 0, repository.ErrDuplicateUser
		}
	}
	id := r.nextID
	r.nextID++
	stored := *user
	stored.ID = id
	r.users[id] = &stored
	return id, nil
}

func (r *fakeUserRepo) GetUserByID(id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetUserByUsername(username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetUserByProvider(provider, providerID string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Provider == provider && user.ProviderID == providerID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

// fakeSessionStore is an in-memory SessionAuthenticator.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]auth.Identity
	nextID   int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]auth.Identity{}}
}

func (s *fakeSessionStore) Establish(ctx context.Context, identity auth.Identity) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	sessionID := fmt.Sprintf("session-%d", s.nextID)
	s.sessions[sessionID] = identity
	return sessionID, nil
}

func (s *fakeSessionStore) Resolve(ctx context.Context, sessionID string) (*auth.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.sessions[sessionID]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}
	return &identity, nil
}

func (s *fakeSessionStore) Destroy(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// testEnv bundles a handler wired to fakes with its router.
type testEnv struct {
	router    *mux.Router
	handler   *APIHandler
	songs     *fakeSongRepo
	playlists *fakePlaylistRepo
	users     *fakeUserRepo
	sessions  *fakeSessionStore
	playback  *playback.State
	cfg       *config.Config
}

func newTestEnv() *testEnv {
	songs := newFakeSongRepo()
	playlists := newFakePlaylistRepo()
	users := newFakeUserRepo()
	sessions := newFakeSessionStore()
	tokens := auth.NewJWTAuthenticator("test-secret", time.Hour)
	authService := auth.NewService(sessions, tokens, users, nil)
	playbackState := playback.NewState()
	cfg := &config.Config{
		Port:            "0",
		SessionTTLHours: 1,
		MusicDir:        "music",
	}

	handler := NewAPIHandler(songs, playlists, users, authService, playbackState, cfg)

	router := mux.NewRouter()
	router.Use(handler.WithIdentity)

	router.HandleFunc("/api/songs", handler.ListSongsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/metadata/{id}", handler.SongMetadataHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/stream/{id}", handler.StreamSongHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs", handler.RequireAuth(handler.CreateSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}", handler.RequireAuth(handler.DeleteSongHandler)).Methods(http.MethodDelete)

	router.HandleFunc("/api/playlists", handler.ListPlaylistsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", handler.CreatePlaylistHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}", handler.GetPlaylistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}", handler.UpdatePlaylistHandler).Methods(http.MethodPut)
	router.HandleFunc("/api/playlists/{id}", handler.DeletePlaylistHandler).Methods(http.MethodDelete)

	router.HandleFunc("/api/playback/play", handler.PlayHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playback/pause", handler.PauseHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playback/skip", handler.SkipHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playback/shuffle", handler.ShuffleHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playback/repeat", handler.RepeatHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playback/queue", handler.QueueHandler).Methods(http.MethodPost)

	router.HandleFunc("/api/users/register", handler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/users/login", handler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/users/logout", handler.RequireAuth(handler.LogoutHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/users/me", handler.RequireAuth(handler.MeHandler)).Methods(http.MethodGet)

	return &testEnv{
		router:    router,
		handler:   handler,
		songs:     songs,
		playlists: playlists,
		users:     users,
		sessions:  sessions,
		playback:  playbackState,
		cfg:       cfg,
	}
}
