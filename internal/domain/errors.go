package domain

import (
	"errors"
	"strings"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrSchemaCorruption     = errors.New("persisted record is corrupted")
	ErrNetworkUnreachable   = errors.New("server unreachable")
	ErrServer               = errors.New("server error")
	ErrAuth                 = errors.New("authentication failed")
	ErrConfirmationRequired = errors.New("confirmation required")

	ErrDiscontinuousChain = errors.New("leg does not depart from the previous arrival airport")
	ErrLegSequence        = errors.New("leg departs before the previous leg arrives")
	ErrInvalidTransition  = errors.New("invalid booking transition")
	ErrFlightDeparted     = errors.New("flight has already departed")
)

// FieldError is a single rejected field. Err optionally carries a more
// specific sentinel such as ErrDiscontinuousChain.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

// ValidationError collects every rejected field of one input.
// It matches ErrValidation and any sentinel carried by its fields.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	for _, fe := range e.Errors {
		if fe.Err != nil && errors.Is(fe.Err, target) {
			return true
		}
	}
	return false
}

// Field returns the first message recorded for name, or "".
func (e *ValidationError) Field(name string) string {
	for _, fe := range e.Errors {
		if fe.Field == name {
			return fe.Message
		}
	}
	return ""
}

func (e *ValidationError) add(field, message string, err error) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message, Err: err})
}

// orNil keeps ParseFlight-style builders from returning a typed nil.
func (e *ValidationError) orNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// NewValidationError builds a ValidationError from field/message pairs in order.
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Errors: fields}
}
