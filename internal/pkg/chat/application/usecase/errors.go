package usecase

import (
	"errors"
	"fmt"
)

// ErrPersistence indicates an infrastructure/repository failure inside a use case
var ErrPersistence = fmt.Errorf("chat use case persistence error")

// ErrInvalidInput marks a request that is malformed before any store is touched.
var ErrInvalidInput = errors.New("chat: invalid input")
