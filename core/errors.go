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
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// ResolutionError reports an entity the transaction needed but could not resolve
// (eg. no school year configured). Nothing has been written when it is returned.
type ResolutionError struct {
	msg string
}

func NewResolutionError(msg string) *ResolutionError {
	return &ResolutionError{msg: msg}
}

func (err *ResolutionError) Error() string {
	return err.msg
}

func IsResolution(err error) bool {
	_, ok := errors.Cause(err).(*ResolutionError)
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
