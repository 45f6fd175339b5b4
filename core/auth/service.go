package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"soundwave/model"
	"soundwave/repository"
)

var (
	// ErrInvalidCredentials covers every local login failure so responses
	// never reveal whether the account or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid username/email or password")

	// ErrInvalidToken covers expired, malformed and tampered bearer tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrSessionNotFound is returned for unknown or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
)

// Service composes the session and token authenticators over the user store.
// Either capability may authenticate a request on its own.
type Service struct {
	Sessions SessionAuthenticator
	Tokens   TokenAuthenticator

	users    repository.UserRepository
	provider IdentityProvider
}

// NewService creates the authentication service.
func NewService(sessions SessionAuthenticator, tokens TokenAuthenticator, users repository.UserRepository, provider IdentityProvider) *Service {
	return &Service{
		Sessions: sessions,
		Tokens:   tokens,
		users:    users,
		provider: provider,
	}
}

// Provider exposes the configured federated identity provider, or nil when
// federated login is not configured.
func (s *Service) Provider() IdentityProvider {
	return s.provider
}

// Authenticate verifies a local credential. The login name may be a username
// or an email address.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*model.User, error) {
	var user *model.User
	var err error
	if strings.Contains(login, "@") {
		user, err = s.users.GetUserByEmail(login)
	} else {
		user, err = s.users.GetUserByUsername(login)
	}
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Register creates a local account with a hashed password.
func (s *Service) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
	}
	id, err := s.users.CreateUser(user)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return user, nil
}

// AuthenticateFederated completes a federated login: the authorization code
// is exchanged with the provider and the resulting identity is mapped to a
// local user, created on first login.
func (s *Service) AuthenticateFederated(ctx context.Context, code string) (*model.User, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("no identity provider configured")
	}

	profile, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByProvider(profile.Provider, profile.ID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	// First federated login: create the local record.
	username := profile.DisplayName
	if username == "" {
		username = fmt.Sprintf("%s_%s", profile.Provider, profile.ID)
	}
	email := profile.Email
	if email == "" {
		email = fmt.Sprintf("%s@%s.local", profile.ID, profile.Provider)
	}

	user = &model.User{
		Username:   username,
		Email:      email,
		Provider:   profile.Provider,
		ProviderID: profile.ID,
	}
	id, err := s.users.CreateUser(user)
	if err != nil {
		// The profile's display name or email may collide with an existing
		// account; fall back to a provider-scoped username.
		if errors.Is(err, repository.ErrDuplicateUser) {
			user.Username = fmt.Sprintf("%s_%s", profile.Provider, profile.ID)
			user.Email = fmt.Sprintf("%s@%s.local", profile.ID, profile.Provider)
			id, err = s.users.CreateUser(user)
		}
		if err != nil {
			return nil, err
		}
	}
	user.ID = id
	return user, nil
}

// Login establishes a session and issues a token for an authenticated user.
func (s *Service) Login(ctx context.Context, user *model.User) (sessionID, token string, err error) {
	identity := Identity{UserID: user.ID, Username: user.Username}

	sessionID, err = s.Sessions.Establish(ctx, identity)
	if err != nil {
		return "", "", fmt.Errorf("failed to establish session: %w", err)
	}

	token, err = s.Tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", "", fmt.Errorf("failed to issue token: %w", err)
	}
	return sessionID, token, nil
}
