// Package common defines shared constants and sentinel errors used across the
// RecipeHub server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (

	// repository specific errors
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// service specific errors
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// KindError is an error with a user-facing message that belongs to one of the
// sentinel categories above.
type KindError struct {
	kind error
	msg  string
}

// NewError returns an error whose message is msg and which matches kind with
// errors.Is.
func NewError(kind error, msg string) error {
	return &KindError{kind: kind, msg: msg}
}

func (e *KindError) Error() string { return e.msg }

func (e *KindError) Unwrap() error { return e.kind }
