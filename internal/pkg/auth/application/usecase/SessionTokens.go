package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	auth "projectsync/internal/pkg/auth/application/domain"
)

// sessionClaims is the JWT body of a session credential.
type sessionClaims struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// SessionTokens issues and verifies the signed session credential presented
// by HTTP requests and realtime connections.
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionTokens(secret string, ttl time.Duration) (*SessionTokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session: empty signing secret")
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SessionTokens{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is the lifetime of issued credentials.
func (s *SessionTokens) TTL() time.Duration { return s.ttl }

// Issue signs a credential for id.
func (s *SessionTokens) Issue(id auth.Identity) (string, error) {
	if strings.TrimSpace(id.ID) == "" {
		return "", errors.New("session: identity id is required")
	}
	now := time.Now()
	claims := sessionClaims{
		Name:  id.Name,
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify decodes a credential. Any failure maps to auth.ErrUnauthorized.
func (s *SessionTokens) Verify(token string) (auth.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Identity{}, auth.ErrUnauthorized
	}
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return auth.Identity{}, fmt.Errorf("%w: %v", auth.ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return auth.Identity{}, fmt.Errorf("%w: token has no subject", auth.ErrUnauthorized)
	}
	return auth.Identity{ID: claims.Subject, Name: claims.Name, Email: claims.Email}, nil
}
