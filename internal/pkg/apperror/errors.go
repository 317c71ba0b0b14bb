// Package apperror holds the error kinds shared by the services and the HTTP layer.
//
// Every error returned by a service wraps exactly one of the sentinel kinds below,
// so callers classify with errors.Is and the HTTP layer maps kinds to statuses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidState      = errors.New("invalid state")
	ErrProvider          = errors.New("provider error")
	ErrPersistence       = errors.New("persistence error")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")

	// ErrMetadataNotSaved marks a provider call that succeeded while the follow-up write failed.
	ErrMetadataNotSaved = errors.New("generated successfully but failed to save metadata")
)

func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func Unauthorized(reason string) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, reason)
}

// Provider wraps an error returned by the external ML provider.
func Provider(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrProvider, op, err)
}

// Persistence wraps a failed store read or write. Errors that already carry a kind pass through.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if Kind(err) != nil {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

var kinds = []error{
	ErrMetadataNotSaved,
	ErrInvalidInput,
	ErrInvalidState,
	ErrProvider,
	ErrPersistence,
	ErrInsufficientFunds,
	ErrNotFound,
	ErrConflict,
	ErrUnauthorized,
}

// Kind returns the sentinel kind wrapped by err, or nil when err is unclassified.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch Kind(err) {
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrInvalidState, ErrConflict:
		return http.StatusConflict
	case ErrProvider:
		return http.StatusBadGateway
	case ErrInsufficientFunds:
		return http.StatusPaymentRequired
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
