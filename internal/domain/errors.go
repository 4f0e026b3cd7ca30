// Package domain defines core types, interfaces, and errors for the
// retail insights assistant.
package domain

import "fmt"

// NotFoundError indicates a resource (session, dataset) was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input, including SQL statements
// rejected by the safety gate.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ParseError indicates an oracle response that contained no usable JSON
// plan. It is always recovered locally by the plan validator's default
// path and never surfaced as a hard failure.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return e.Message }

// UnavailableError indicates a required collaborator (analytical store,
// oracle) is missing or unreachable for this turn.
type UnavailableError struct {
	Message string
}

func (e *UnavailableError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrParse creates a ParseError with a formatted message.
func ErrParse(format string, args ...interface{}) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...)}
}

// ErrUnavailable creates an UnavailableError with a formatted message.
func ErrUnavailable(format string, args ...interface{}) *UnavailableError {
	return &UnavailableError{Message: fmt.Sprintf(format, args...)}
}
