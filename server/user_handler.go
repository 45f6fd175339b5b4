package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"soundwave/core/auth"
	"soundwave/logger"
	"soundwave/model"
	"soundwave/repository"

	"github.com/google/uuid"
)

// oauthStateCookieName holds the state nonce across the provider redirect.
const oauthStateCookieName = "fm_oauth_state"

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username"` // username or email
	Password string `json:"password"`
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// authResponse is returned by every endpoint that establishes an identity.
type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (h *APIHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   h.cfg.SessionTTLHours * 3600,
	})
}

func (h *APIHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// RegisterHandler creates a local account, establishes a session and issues
// a token.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" || req.Email == "" {
		respondMessage(w, http.StatusBadRequest, "Username, password and email are required")
		return
	}

	user, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			logger.Warn("Registration for existing account",
				logger.String("username", req.Username),
				logger.String("email", req.Email))
			respondMessage(w, http.StatusConflict, "Username or email already exists")
			return
		}
		logger.Error("Failed to register user", logger.ErrorField(err))
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.finishLogin(w, r, user)
}

// LoginHandler verifies a local credential and establishes a session plus a
// bearer token. Failures are reported with one generic message so responses
// never reveal which part of the credential was wrong.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		respondMessage(w, http.StatusBadRequest, "Username/Email and password are required")
		return
	}

	user, err := h.authService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Warn("Failed login attempt", logger.String("login", req.Username))
			respondMessage(w, http.StatusUnauthorized, "Invalid username/email or password")
			return
		}
		logger.Error("Failed to authenticate user", logger.ErrorField(err))
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	logger.Info("User logged in", logger.String("username", user.Username))
	h.finishLogin(w, r, user)
}

// finishLogin establishes the session, issues the token and writes the
// authenticated response.
func (h *APIHandler) finishLogin(w http.ResponseWriter, r *http.Request, user *model.User) {
	sessionID, token, err := h.authService.Login(r.Context(), user)
	if err != nil {
		logger.Error("Failed to establish login", logger.Int64("userId", user.ID), logger.ErrorField(err))
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.setSessionCookie(w, sessionID)
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// LogoutHandler destroys the server-side session and clears the cookie.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := h.authService.Sessions.Destroy(r.Context(), cookie.Value); err != nil {
			logger.Warn("Failed to destroy session", logger.ErrorField(err))
		}
	}
	h.clearSessionCookie(w)
	respondMessage(w, http.StatusOK, "Logged out successfully")
}

// MeHandler returns the authenticated user's profile.
func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userRepo.GetUserByID(identity.UserID)
	if err != nil {
		logger.Error("Failed to load user", logger.Int64("userId", identity.UserID), logger.ErrorField(err))
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	if user == nil {
		respondMessage(w, http.StatusNotFound, "User not found")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// FederatedLoginHandler redirects the client to the identity provider's
// consent page.
func (h *APIHandler) FederatedLoginHandler(w http.ResponseWriter, r *http.Request) {
	provider := h.authService.Provider()
	if provider == nil {
		respondMessage(w, http.StatusNotFound, "Federated login not configured")
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int((10 * time.Minute).Seconds()),
	})

	http.Redirect(w, r, provider.AuthURL(state), http.StatusFound)
}

// FederatedCallbackHandler completes the provider flow: the state nonce is
// checked, the code is exchanged, and the provider identity is mapped to a
// local user (created on first login).
func (h *APIHandler) FederatedCallbackHandler(w http.ResponseWriter, r *http.Request) {
	provider := h.authService.Provider()
	if provider == nil {
		respondMessage(w, http.StatusNotFound, "Federated login not configured")
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		respondMessage(w, http.StatusUnauthorized, "Invalid authentication state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondMessage(w, http.StatusUnauthorized, "Authentication failed")
		return
	}

	user, err := h.authService.AuthenticateFederated(r.Context(), code)
	if err != nil {
		logger.Error("Federated authentication failed", logger.ErrorField(err))
		respondMessage(w, http.StatusUnauthorized, "Authentication failed")
		return
	}

	logger.Info("Federated login",
		logger.String("provider", provider.Name()),
		logger.String("username", user.Username))
	h.finishLogin(w, r, user)
}
