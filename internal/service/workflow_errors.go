package service

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type ErrorKind string

const (
	ErrKindValidation ErrorKind = "validation"
	ErrKindUpload     ErrorKind = "upload"
	ErrKindBackend    ErrorKind = "backend"
	ErrKindMetadata   ErrorKind = "metadata"
	ErrKindExtraction ErrorKind = "extraction"
	ErrKindNotFound   ErrorKind = "not_found"
)

// WorkflowError tags a failure so the caller can apply the stage policy
// and the HTTP layer can pick a status code.
type WorkflowError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *WorkflowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

func (e *WorkflowError) StatusCode() int {
	switch e.Kind {
	case ErrKindValidation:
		return fiber.StatusBadRequest
	case ErrKindUpload, ErrKindBackend:
		return fiber.StatusBadGateway
	case ErrKindExtraction:
		return fiber.StatusUnprocessableEntity
	case ErrKindNotFound:
		return fiber.StatusNotFound
	case ErrKindMetadata:
		return fiber.StatusOK
	}
	return fiber.StatusInternalServerError
}

func newWorkflowError(kind ErrorKind, message string, err error) *WorkflowError {
	return &WorkflowError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of a WorkflowError anywhere in err's chain, or "".
func KindOf(err error) ErrorKind {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}
