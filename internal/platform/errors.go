package platform

import (
	"errors"
	"fmt"
)

const (
	// CodeUniqueViolation is the SQLSTATE the store reports when an insert
	// breaks a uniqueness constraint.
	CodeUniqueViolation = "23505"
	// codeNoRows is reported when a single-object read matches zero rows.
	codeNoRows = "PGRST116"
)

// Error is a failure reported by the platform, carrying the HTTP status of
// the upstream response and the platform's own error code when present.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("platform: %s (code %s)", e.Message, e.Code)
	}
	return fmt.Sprintf("platform: %s", e.Message)
}

// IsUniqueViolation reports whether err is a store-side uniqueness conflict.
func IsUniqueViolation(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Code == CodeUniqueViolation
}

// IsNotFound reports whether err means a single-row read matched nothing.
func IsNotFound(err error) bool {
	var pe *Error
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Code == codeNoRows || pe.Status == 404 || pe.Status == 406
}

// Message extracts a user-facing message from a platform error, falling
// back to err.Error() for anything else.
func Message(err error) string {
	var pe *Error
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return err.Error()
}
