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
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

// RemoteError reports a failure of one of the external collaborators
// (document store, session authority, blob store).
type RemoteError struct {
	Op  string
	Err error
}

// NewRemoteError wraps err as a RemoteError; a nil err stays nil.
func NewRemoteError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Op: op, Err: err}
}

func (err RemoteError) Error() string {
	return err.Op + ": " + err.Err.Error()
}

func (err RemoteError) Unwrap() error {
	return err.Err
}

func IsRemote(err error) bool {
	_, ok := errors.Cause(err).(*RemoteError)
	return ok
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
