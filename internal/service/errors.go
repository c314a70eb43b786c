package service

import (
	"errors"

	"github.com/carissacho3/pet-adoption-backend/internal/repository"
)

// Kind classifies service failures for the transport layer.
type Kind string

const (
	KindBadRequest      Kind = "bad_request"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindInternal        Kind = "internal"
)

// Error is returned by every service operation that fails.
// Message is safe to show to callers; Err holds the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	// ErrInvalidCredentials is returned for an unknown email and for a wrong password alike.
	ErrInvalidCredentials = &Error{Kind: KindUnauthenticated, Message: "invalid email or password"}
	// ErrUnknownUser is returned when a verified token names a user that no longer exists.
	ErrUnknownUser = &Error{Kind: KindUnauthenticated, Message: "not authorized, user no longer exists"}
	// ErrUserAlreadyExists is returned when username or email is taken.
	ErrUserAlreadyExists = &Error{Kind: KindConflict, Message: "user with this email or username already exists"}
	// ErrAlreadyBookmarked is returned when the pet is already in the caller's list.
	ErrAlreadyBookmarked = &Error{Kind: KindConflict, Message: "pet already bookmarked"}
)

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func internalError(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf reports the Kind of err, treating foreign errors as internal.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// lookupError translates repository lookup failures for the named resource.
func lookupError(resource string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return newError(KindNotFound, resource+" not found")
	case errors.Is(err, repository.ErrInvalidID):
		return newError(KindBadRequest, "invalid "+resource+" id")
	}
	return internalError("load "+resource, err)
}
