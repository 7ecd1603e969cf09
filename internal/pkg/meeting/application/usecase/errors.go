package usecase

import (
	"errors"
	"fmt"
)

// ErrPersistence indicates an infrastructure/repository failure inside a use case
var ErrPersistence = fmt.Errorf("meeting use case persistence error")

// ErrTokenIssue wraps a room credential issuer failure.
var ErrTokenIssue = errors.New("meeting: could not issue room credential")
