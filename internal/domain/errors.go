package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that carry their own HTTP status code, so the
// handler layer can map domain failures without per-handler switches.
type HTTPError interface {
	error
	StatusCode() int
}

type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates authorization failure
	ForbiddenError struct {
		Message string
	}

	// StructuralViolationError indicates a section mutation that would break
	// the outline forest (a parent cycle or a duplicate sibling order).
	// Rejected before touching storage.
	StructuralViolationError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string            { return e.Message }
func (e *ValidationError) Error() string          { return e.Message }
func (e *UnauthorizedError) Error() string        { return e.Message }
func (e *ForbiddenError) Error() string           { return e.Message }
func (e *StructuralViolationError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int            { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int          { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int        { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int           { return http.StatusForbidden }
func (e *StructuralViolationError) StatusCode() int { return http.StatusUnprocessableEntity }

// Sentinel errors for errors.Is checks across layers.
var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("already exists")
	ErrValidation          = errors.New("validation failed")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrStructuralViolation = errors.New("structural violation")
)

// Is allows errors.Is() to match against ErrStructuralViolation
func (e *StructuralViolationError) Is(target error) bool {
	return target == ErrStructuralViolation
}

// ConflictError represents a resource conflict with details about the
// existing resource, so create handlers can return the conflicting record.
type ConflictError struct {
	Message      string // human-readable error message
	ResourceType string // type of resource (document, section, binding)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
