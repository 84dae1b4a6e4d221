package exam

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrAttemptsExhausted = errors.New("max attempts reached")
	ErrInvalidWeight     = errors.New("question weight must be >= 1")
	ErrInvalidAttempts   = errors.New("max_attempts must be >= 1")
)
