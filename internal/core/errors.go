package core

import (
	"errors"
	"strings"
)

// Sentinel errors. Callers wrap them with context using %w and match them
// with errors.Is. Their text is chosen so MapError finds the right catalogue
// entry even after wrapping.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrRequisitionLocked = errors.New("requisition is no longer pending")
	ErrPreviewNotFound   = errors.New("import preview not found")
	ErrNothingToCommit   = errors.New("import preview has no valid items")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrValidation        = errors.New("validation failed")
	ErrDuplicate         = errors.New("record already exists")
	ErrUnknownKind       = errors.New("unknown component kind")
	ErrUnsupportedFile   = errors.New("unsupported file type")
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnauthenticated   = errors.New("authentication required")
)

// InputError reports one or more problems with caller-supplied data. It
// matches ErrValidation under errors.Is.
type InputError struct {
	Errors []ValidationError
}

func (e *InputError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		msgs = append(msgs, ve.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *InputError) Unwrap() error { return ErrValidation }

// invalidField builds an InputError for a single field.
func invalidField(field, msg, value string) *InputError {
	return &InputError{Errors: []ValidationError{{Field: field, Message: msg, Value: value}}}
}
