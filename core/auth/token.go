package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload carried by bearer tokens.
type Claims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenAuthenticator issues and verifies signed, time-bound bearer tokens.
type TokenAuthenticator interface {
	Issue(userID int64, username string) (string, error)
	Verify(token string) (*Identity, error)
}

// jwtAuthenticator implements TokenAuthenticator with HS256.
type jwtAuthenticator struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTAuthenticator creates a TokenAuthenticator signing with the given secret.
func NewJWTAuthenticator(secret string, ttl time.Duration) TokenAuthenticator {
	return &jwtAuthenticator{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token carrying the user identity.
func (a *jwtAuthenticator) Issue(userID int64, username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the identity it carries.
// Expired or tampered tokens fail with ErrInvalidToken.
func (a *jwtAuthenticator) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return &Identity{UserID: claims.UserID, Username: claims.Username}, nil
}
