package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// spotify API endpoints
const (
	spotifyAuthURL    = "https://accounts.spotify.com/authorize"
	spotifyTokenURL   = "https://accounts.spotify.com/api/token"
	spotifyProfileURL = "https://api.spotify.com/v1/me"
)

// ProviderProfile is the identity returned by a federated provider.
type ProviderProfile struct {
	Provider    string
	ID          string
	DisplayName string
	Email       string
}

// IdentityProvider proves a user's identity through an external OAuth2 provider.
type IdentityProvider interface {
	Name() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*ProviderProfile, error)
}

// spotifyProvider implements IdentityProvider against the Spotify accounts API.
type spotifyProvider struct {
	config *oauth2.Config
}

// NewSpotifyProvider creates a Spotify identity provider.
func NewSpotifyProvider(clientID, clientSecret, redirectURL string) IdentityProvider {
	return &spotifyProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"user-read-email", "user-read-private"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAuthURL,
				TokenURL: spotifyTokenURL,
			},
		},
	}
}

func (p *spotifyProvider) Name() string {
	return "spotify"
}

// AuthURL returns the URL the client is redirected to for consent.
func (p *spotifyProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token and fetches the profile.
func (p *spotifyProvider) Exchange(ctx context.Context, code string) (*ProviderProfile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	client := p.config.Client(ctx, token)
	resp, err := client.Get(spotifyProfileURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch provider profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider profile request failed with status %d", resp.StatusCode)
	}

	var profile struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		Email       string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode provider profile: %w", err)
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("provider profile missing id")
	}

	return &ProviderProfile{
		Provider:    p.Name(),
		ID:          profile.ID,
		DisplayName: profile.DisplayName,
		Email:       profile.Email,
	}, nil
}
