package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Identity is the minimal authenticated identity carried by sessions and tokens.
type Identity struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// SessionAuthenticator maintains server-side sessions referenced by a
// client-held cookie value.
type SessionAuthenticator interface {
	Establish(ctx context.Context, identity Identity) (string, error)
	Resolve(ctx context.Context, sessionID string) (*Identity, error)
	Destroy(ctx context.Context, sessionID string) error
}

// redisSessionStore implements SessionAuthenticator on Redis. Sessions are
// random ids mapping to a serialized identity, expiring after the TTL.
type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore creates a SessionAuthenticator backed by Redis.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) SessionAuthenticator {
	return &redisSessionStore{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// Establish stores the identity under a fresh session id.
func (s *redisSessionStore) Establish(ctx context.Context, identity Identity) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("session store not available")
	}

	sessionID := uuid.NewString()
	raw, err := json.Marshal(identity)
	if err != nil {
		return "", fmt.Errorf("failed to serialize session identity: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(sessionID), raw, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return sessionID, nil
}

// Resolve looks a session id back up to its identity. Unknown or expired
// sessions fail with ErrSessionNotFound.
func (s *redisSessionStore) Resolve(ctx context.Context, sessionID string) (*Identity, error) {
	if s.client == nil {
		return nil, fmt.Errorf("session store not available")
	}

	raw, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	identity := &Identity{}
	if err := json.Unmarshal([]byte(raw), identity); err != nil {
		return nil, fmt.Errorf("failed to decode session identity: %w", err)
	}
	return identity, nil
}

// Destroy removes a session. Destroying an unknown session is not an error.
func (s *redisSessionStore) Destroy(ctx context.Context, sessionID string) error {
	if s.client == nil {
		return fmt.Errorf("session store not available")
	}
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
