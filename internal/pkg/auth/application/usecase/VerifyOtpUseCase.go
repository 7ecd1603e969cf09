package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	cacheport "projectsync/internal/infrastructure/cache/port"
	auth "projectsync/internal/pkg/auth/application/domain"
)

// identityNamespace scopes the email-derived user ids.
var identityNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("projectsync:identity"))

// SessionIssuer signs the session credential handed out after a successful verify.
// SessionTokens implements it.
type SessionIssuer interface {
	Issue(id auth.Identity) (string, error)
	TTL() time.Duration
}

// VerifyOtpInput is a submitted code for an email address.
type VerifyOtpInput struct {
	Email string
	Code  string
}

type VerifyOtpOutput struct {
	Identity  auth.Identity
	Token     string
	ExpiresAt time.Time
}

// VerifyOtpUseCase checks a submitted code, consumes it on success and signs
// a session for the verified address.
type VerifyOtpUseCase struct {
	Cache    cacheport.Cache
	Sessions SessionIssuer
	Now      func() time.Time
}

func NewVerifyOtpUseCase(cache cacheport.Cache, sessions SessionIssuer) *VerifyOtpUseCase {
	return &VerifyOtpUseCase{Cache: cache, Sessions: sessions, Now: time.Now}
}

func (uc *VerifyOtpUseCase) Execute(ctx context.Context, in VerifyOtpInput) (*VerifyOtpOutput, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(in.Code)
	if len(code) != otpDigits {
		return nil, ErrInvalidCode
	}

	hash, err := uc.Cache.Get(ctx, otpKey(email))
	if errors.Is(err, cacheport.ErrMiss) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		return nil, ErrInvalidCode
	}

	// Single use: only the caller that actually deletes the key wins.
	n, err := uc.Cache.Del(ctx, otpKey(email))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if n == 0 {
		return nil, ErrInvalidCode
	}

	id := IdentityForEmail(email)
	expiresAt := uc.Now().Add(uc.Sessions.TTL())
	token, err := uc.Sessions.Issue(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionIssue, err)
	}
	return &VerifyOtpOutput{Identity: id, Token: token, ExpiresAt: expiresAt}, nil
}

// IdentityForEmail derives the stable identity of a verified, normalized address.
// The same address always maps to the same user id.
func IdentityForEmail(email string) auth.Identity {
	name, _, _ := strings.Cut(email, "@")
	return auth.Identity{
		ID:    uuid.NewSHA1(identityNamespace, []byte(email)).String(),
		Name:  name,
		Email: email,
	}
}
