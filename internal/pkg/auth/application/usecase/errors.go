package usecase

import "errors"

var (
	// ErrPersistence indicates a cache or repository failure inside an auth use case.
	ErrPersistence = errors.New("auth use case persistence error")
	// ErrDelivery indicates the OTP email could not be sent.
	ErrDelivery = errors.New("auth: otp delivery failed")
	// ErrInvalidCode covers wrong, expired and already consumed codes alike.
	ErrInvalidCode = errors.New("auth: invalid or expired code")
	// ErrInvalidEmail is a validation failure on the email address.
	ErrInvalidEmail = errors.New("auth: a valid email is required")
	// ErrSessionIssue means a verified caller could not be given a session credential.
	ErrSessionIssue = errors.New("auth: session issue failed")
)
