package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated means the request carried no session.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrInvalidSession means the session token failed verification.
	ErrInvalidSession = errors.New("invalid or expired session")
	// ErrForbidden is returned on role or ownership mismatch.
	ErrForbidden = errors.New("permission denied")
	// ErrNotFound also hides listings the caller may not see.
	ErrNotFound = errors.New("not found")
	// ErrValidation is wrapped with the offending field.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned on unique constraint violations.
	ErrConflict = errors.New("already exists")
	// ErrServerMisconfiguration is returned when the signing secret is missing.
	ErrServerMisconfiguration = errors.New("server misconfiguration")
	// ErrStorage wraps image store failures.
	ErrStorage = errors.New("storage error")
)

// Invalid returns a validation error carrying msg.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
