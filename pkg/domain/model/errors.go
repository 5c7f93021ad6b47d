package model

import (
	"errors"
)

// ErrorKind classifies a BusinessError
type ErrorKind int

const (
	ErrKindInternal ErrorKind = iota
	ErrKindValidation
	ErrKindNotFound
	ErrKindConflict
	ErrKindLookup
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindValidation:
		return "validation"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConflict:
		return "conflict"
	case ErrKindLookup:
		return "lookup"
	default:
		return "internal"
	}
}

// BusinessError is the error usecases return to the transport layer: a user facing message
// plus optional detail such as field errors. The underlying cause is kept for logging only.
type BusinessError struct {
	kind    ErrorKind
	message string
	data    any
	cause   error
}

// NewBusinessError creates a BusinessError
func NewBusinessError(kind ErrorKind, message string, data any, cause error) *BusinessError {
	return &BusinessError{kind: kind, message: message, data: data, cause: cause}
}

func (e *BusinessError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *BusinessError) Unwrap() error   { return e.cause }
func (e *BusinessError) Kind() ErrorKind { return e.kind }
func (e *BusinessError) Message() string { return e.message }
func (e *BusinessError) Data() any       { return e.data }

// AsBusinessError extracts a BusinessError from the error chain
func AsBusinessError(err error) (*BusinessError, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// ValidationError reports a payload that failed schema checks
func ValidationError(message string, fields FieldErrors) *BusinessError {
	var data any
	if len(fields) > 0 {
		data = fields.Messages()
	}
	return NewBusinessError(ErrKindValidation, message, data, fields.errOrNil())
}

// NotFoundError reports an identifier that does not resolve in the current case
func NotFoundError(message string, cause error) *BusinessError {
	return NewBusinessError(ErrKindNotFound, message, nil, cause)
}

// ConflictError reports a write that collides with existing state
func ConflictError(message string, data any) *BusinessError {
	return NewBusinessError(ErrKindConflict, message, data, nil)
}

// LookupError reports an enumerated name or id that does not resolve
func LookupError(message string, data any) *BusinessError {
	return NewBusinessError(ErrKindLookup, message, data, nil)
}

// InternalError hides a persistence or logic failure behind a generic message
func InternalError(message string, cause error) *BusinessError {
	return NewBusinessError(ErrKindInternal, message, nil, cause)
}

func (e FieldErrors) errOrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
