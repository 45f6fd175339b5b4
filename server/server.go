package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"soundwave/config"
	"soundwave/core/auth"
	"soundwave/core/playback"
	"soundwave/db"
	"soundwave/logger"
	"soundwave/repository"
	"soundwave/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // audio streaming responses may outlive any fixed write budget
		IdleTimeout:  120 * time.Second,
	}

	// A failed database connection is logged, not fatal: the server keeps
	// listening and requests fail until connectivity is restored.
	if err := db.ConnectDB(cfg); err != nil {
		logger.Error("Failed to connect to database, continuing without it", logger.ErrorField(err))
	} else {
		defer db.CloseDB()
		if err := db.InitDB(); err != nil {
			logger.Error("Failed to initialize database schema", logger.ErrorField(err))
		}
	}

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Error("Failed to connect to Redis, session login degraded", logger.ErrorField(err))
	} else {
		defer db.CloseRedis()
		logger.Info("Successfully connected to Redis")
	}

	if err := storage.InitMinio(cfg); err != nil {
		logger.Error("Failed to initialize object storage, cover uploads degraded", logger.ErrorField(err))
	}

	songRepo := repository.NewMySQLSongRepository(db.DB)
	playlistRepo := repository.NewMySQLPlaylistRepository(db.DB)
	userRepo := repository.NewMySQLUserRepository(db.DB)

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	sessions := auth.NewRedisSessionStore(db.RedisClient, sessionTTL)
	tokens := auth.NewJWTAuthenticator(cfg.SessionSecret, sessionTTL)

	var provider auth.IdentityProvider
	if cfg.SpotifyClientID != "" && cfg.SpotifyClientSecret != "" {
		provider = auth.NewSpotifyProvider(cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyRedirectURL)
	}
	authService := auth.NewService(sessions, tokens, userRepo, provider)

	// One playback state per process, injected into the handlers.
	playbackState := playback.NewState()

	apiHandler := NewAPIHandler(songRepo, playlistRepo, userRepo, authService, playbackState, cfg)

	router := mux.NewRouter()

	// CORS for the configured client origin, with credentials for the
	// session cookie.
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", cfg.ClientURL)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	router.Use(apiHandler.WithIdentity)

	// Song endpoints
	songs := router.PathPrefix("/api/songs").Subrouter()
	songs.HandleFunc("", apiHandler.ListSongsHandler).Methods(http.MethodGet)
	songs.HandleFunc("/metadata/{id}", apiHandler.SongMetadataHandler).Methods(http.MethodGet)
	songs.HandleFunc("/stream/{id}", apiHandler.StreamSongHandler).Methods(http.MethodGet)
	songs.HandleFunc("", apiHandler.RequireAuth(apiHandler.CreateSongHandler)).Methods(http.MethodPost)
	songs.HandleFunc("/{id}", apiHandler.RequireAuth(apiHandler.DeleteSongHandler)).Methods(http.MethodDelete)
	songs.HandleFunc("/{id}/cover", apiHandler.RequireAuth(apiHandler.UploadCoverHandler)).Methods(http.MethodPost)

	// Playlist endpoints
	playlists := router.PathPrefix("/api/playlists").Subrouter()
	playlists.HandleFunc("", apiHandler.ListPlaylistsHandler).Methods(http.MethodGet)
	playlists.HandleFunc("", apiHandler.CreatePlaylistHandler).Methods(http.MethodPost)
	playlists.HandleFunc("/{id}", apiHandler.GetPlaylistHandler).Methods(http.MethodGet)
	playlists.HandleFunc("/{id}", apiHandler.UpdatePlaylistHandler).Methods(http.MethodPut)
	playlists.HandleFunc("/{id}", apiHandler.DeletePlaylistHandler).Methods(http.MethodDelete)

	// Playback control endpoints
	playbackRoutes := router.PathPrefix("/api/playback").Subrouter()
	playbackRoutes.HandleFunc("/play", apiHandler.PlayHandler).Methods(http.MethodPost)
	playbackRoutes.HandleFunc("/pause", apiHandler.PauseHandler).Methods(http.MethodPost)
	playbackRoutes.HandleFunc("/skip", apiHandler.SkipHandler).Methods(http.MethodPost)
	playbackRoutes.HandleFunc("/shuffle", apiHandler.ShuffleHandler).Methods(http.MethodPost)
	playbackRoutes.HandleFunc("/repeat", apiHandler.RepeatHandler).Methods(http.MethodPost)
	playbackRoutes.HandleFunc("/queue", apiHandler.QueueHandler).Methods(http.MethodPost)

	// User and authentication endpoints
	users := router.PathPrefix("/api/users").Subrouter()
	users.HandleFunc("/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	users.HandleFunc("/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	users.HandleFunc("/logout", apiHandler.RequireAuth(apiHandler.LogoutHandler)).Methods(http.MethodPost)
	users.HandleFunc("/me", apiHandler.RequireAuth(apiHandler.MeHandler)).Methods(http.MethodGet)
	users.HandleFunc("/auth/spotify", apiHandler.FederatedLoginHandler).Methods(http.MethodGet)
	users.HandleFunc("/auth/spotify/callback", apiHandler.FederatedCallbackHandler).Methods(http.MethodGet)

	// Cover art served straight from object storage.
	router.PathPrefix("/static/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		objectPath := strings.TrimPrefix(r.URL.Path, "/static/")

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		object, err := storage.GetObject(ctx, cfg, objectPath)
		if err != nil {
			respondMessage(w, http.StatusNotFound, "File not found")
			return
		}
		defer object.Close()

		contentType := "application/octet-stream"
		if strings.HasPrefix(objectPath, "covers/") {
			contentType = "image/jpeg"
			if strings.HasSuffix(objectPath, ".png") {
				contentType = "image/png"
			}
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=31536000")

		if _, err := io.Copy(w, object); err != nil {
			logger.Warn("Error serving object", logger.String("path", objectPath), logger.ErrorField(err))
		}
	})

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}
