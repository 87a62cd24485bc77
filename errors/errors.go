// Package errors defines the error taxonomy of the chat core.
// Every failure crossing a service boundary wraps one of these sentinels,
// so coordinators can map errors to wire kinds without string matching.
package errors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

var (
	// ErrValidation covers empty or oversized message content.
	ErrValidation = fmt.Errorf("validation failed")
	// ErrNotFound covers unknown receivers and counterparties.
	ErrNotFound = fmt.Errorf("not found")
	// ErrAuthorization covers role-pair violations and non-chat roles.
	ErrAuthorization = fmt.Errorf("not authorized")
	// ErrPersistence covers store write or read failures.
	ErrPersistence = fmt.Errorf("persistence failed")
	// ErrConnection covers registry operations without prior authentication.
	// Unreachable when the coordinator honors its contract; fails closed.
	ErrConnection = fmt.Errorf("connection not authenticated")

	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")

	ErrWorkerPanic = fmt.Errorf("worker panic")

	// ErrEmptyBlacklist means the embedded moderation dictionaries
	// yielded no words, which would silently disable censoring.
	ErrEmptyBlacklist = fmt.Errorf("no blacklisted words loaded")
)

// Kind returns the stable wire identifier for an error. Clients key their
// handling on this value, never on the message text.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidPassword):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found_error"
	case errors.Is(err, ErrAuthorization), errors.Is(err, ErrInvalidCredentials):
		return "authorization_error"
	case errors.Is(err, ErrPersistence):
		return "persistence_error"
	case errors.Is(err, ErrConnection):
		return "connection_error"
	default:
		return "internal_error"
	}
}

// MapToHTTPStatus translates an error kind into the status the REST
// surface returns. Unknown errors stay 500 so callers never mistake an
// internal failure for a rejected request.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidPassword):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrAuthorization):
		return fiber.StatusForbidden
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrConnection):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrUserAlreadyExists):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
