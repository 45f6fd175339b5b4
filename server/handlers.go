package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"soundwave/config"
	"soundwave/core/auth"
	"soundwave/core/playback"
	"soundwave/logger"
	"soundwave/repository"
)

// sessionCookieName is the cookie carrying the server-side session id.
const sessionCookieName = "fm_session"

// APIHandler handles all API requests.
type APIHandler struct {
	songRepo     repository.SongRepository
	playlistRepo repository.PlaylistRepository
	userRepo     repository.UserRepository
	authService  *auth.Service
	playback     *playback.State
	cfg          *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	songRepo repository.SongRepository,
	playlistRepo repository.PlaylistRepository,
	userRepo repository.UserRepository,
	authService *auth.Service,
	playbackState *playback.State,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		songRepo:     songRepo,
		playlistRepo: playlistRepo,
		userRepo:     userRepo,
		authService:  authService,
		playback:     playbackState,
		cfg:          cfg,
	}
}

// respondJSON writes a JSON response body.
func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response body", logger.ErrorField(err))
	}
}

// respondMessage writes a JSON {"message": ...} body. Clients never see
// structured error codes or stack traces, only the generic message.
func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// parseID parses a path identifier. Malformed identifiers are a client
// error, mirroring the invalid-identifier failure of the document store.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid identifier %q", raw)
	}
	return id, nil
}

type contextKey string

const identityContextKey contextKey = "identity"

// WithIdentity resolves a session cookie or bearer token into an identity
// and stores it in the request context. Resolution failure never rejects the
// request; protected endpoints reject unauthenticated requests themselves.
func (h *APIHandler) WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity := h.resolveIdentity(r); identity != nil {
			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

func (h *APIHandler) resolveIdentity(r *http.Request) *auth.Identity {
	// Session cookie first.
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		identity, err := h.authService.Sessions.Resolve(r.Context(), cookie.Value)
		if err == nil {
			return identity
		}
		if err != auth.ErrSessionNotFound {
			logger.Warn("Failed to resolve session", logger.ErrorField(err))
		}
	}

	// Then a bearer token.
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			identity, err := h.authService.Tokens.Verify(parts[1])
			if err == nil {
				return identity
			}
		}
	}

	return nil
}

// RequireAuth rejects requests that carry no resolved identity.
func (h *APIHandler) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if IdentityFromContext(r.Context()) == nil {
			respondMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// IdentityFromContext extracts the authenticated identity from the request
// context, or nil for unauthenticated requests.
func IdentityFromContext(ctx context.Context) *auth.Identity {
	identity, ok := ctx.Value(identityContextKey).(*auth.Identity)
	if !ok {
		return nil
	}
	return identity
}
