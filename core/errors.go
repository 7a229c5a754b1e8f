package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	if len(err.Fields) > 0 {
		return err.Fields[0].Field + ": " + err.Fields[0].Error
	}
	return "validation failed"
}

// ConflictError reports a uniqueness or state invariant that the caller's input would break.
type ConflictError struct {
	msg   string
	Field string
}

func NewConflictError(msg string, field ...string) *ConflictError {
	err := &ConflictError{msg: msg}
	if len(field) > 0 {
		err.Field = field[0]
	}
	return err
}

func (err ConflictError) Error() string { return err.msg }

type NotFoundError struct {
	msg string
}

func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{msg: msg}
}

func (err NotFoundError) Error() string { return err.msg }

// AuthError is a credential mismatch.
type AuthError struct {
	msg string
}

func NewAuthError(msg string) *AuthError {
	return &AuthError{msg: msg}
}

func (err AuthError) Error() string { return err.msg }

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
