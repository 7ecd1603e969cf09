package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	cacheport "projectsync/internal/infrastructure/cache/port"
	mailer "projectsync/internal/infrastructure/mail"
)

const otpDigits = 6

func otpKey(email string) string { return "otp:" + email }

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

// RequestOtpInput carries the address to verify.
type RequestOtpInput struct {
	Email string
}

// RequestOtpUseCase generates a one-time code, stores its hash, and emails it.
// Delivery is on the critical path: a send failure is returned to the caller.
type RequestOtpUseCase struct {
	Cache     cacheport.Cache
	Mailer    mailer.Sender
	TTL       time.Duration
	Generator func() (string, error)
}

func NewRequestOtpUseCase(cache cacheport.Cache, sender mailer.Sender, ttl time.Duration) *RequestOtpUseCase {
	return &RequestOtpUseCase{Cache: cache, Mailer: sender, TTL: ttl, Generator: generateCode}
}

func (uc *RequestOtpUseCase) Execute(ctx context.Context, in RequestOtpInput) error {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return err
	}

	code, err := uc.Generator()
	if err != nil {
		return fmt.Errorf("auth: generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash code: %w", err)
	}
	if err := uc.Cache.Set(ctx, otpKey(email), string(hash), uc.TTL); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	msg := mailer.Message{
		To:      email,
		Subject: "Your verification code",
		Body: fmt.Sprintf("Your verification code is %s.\nIt expires in %d minutes.",
			code, int(uc.TTL.Round(time.Minute)/time.Minute)),
	}
	if err := uc.Mailer.Send(ctx, msg); err != nil {
		// A code nobody received must not stay valid.
		_, _ = uc.Cache.Del(context.WithoutCancel(ctx), otpKey(email))
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

func generateCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
