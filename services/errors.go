package services

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrInvalidToken    = errors.New("invalid token")
	ErrUpstream        = errors.New("upstream error")
)

// ServiceError carries a kind and the message shown to the caller.
type ServiceError struct {
	Kind    error
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind error, err error, message string) *ServiceError {
	return &ServiceError{Kind: kind, Message: message, Err: err}
}

func validationError(format string, args ...interface{}) error {
	return newError(ErrValidation, format, args...)
}

func notFoundError(what string) error {
	return newError(ErrNotFound, "%s not found", what)
}

func forbiddenError(message string) error {
	return newError(ErrForbidden, "%s", message)
}

var errInvalidCredentials = newError(ErrUnauthenticated, "invalid credentials")
