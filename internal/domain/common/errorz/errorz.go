package errorz

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrBackingStore      = errors.New("backing store error")
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrUnauthenticated is a PermissionDenied raised before any principal is known.
	ErrUnauthenticated = fmt.Errorf("%w: not authenticated", ErrPermissionDenied)
)

func Forbidden(msg string) error {
	return fmt.Errorf("%w: %s", ErrPermissionDenied, msg)
}

func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

func Transition(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Store wraps a transport or driver failure. Errors already carrying one of
// the sentinels above are returned unchanged.
func Store(err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrBackingStore, err)
}

// Classified reports whether err already belongs to the taxonomy.
func Classified(err error) bool {
	return errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrBackingStore) ||
		errors.Is(err, ErrInvalidTransition)
}
