package field

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDescriptor marks a descriptor missing its id or type.
	ErrInvalidDescriptor = errors.New("field: invalid descriptor")
	// ErrUnknownType marks a descriptor whose type has no definition.
	ErrUnknownType = errors.New("field: unknown field type")
	// ErrDuplicateID is returned under DuplicateReject when an id repeats.
	ErrDuplicateID = errors.New("field: duplicate field id")
	// ErrIncompatibleDuplicate is returned when a repeated id changes type.
	ErrIncompatibleDuplicate = errors.New("field: duplicate field id with different type")
	// ErrInvalidRule marks a visibility rule that does not compile.
	ErrInvalidRule = errors.New("field: invalid visibility rule")
	// ErrRequired is reported by Validate for empty required values.
	ErrRequired = errors.New("field: value is required")
	// ErrInvalidValue is reported by Validate for values the type rejects.
	ErrInvalidValue = errors.New("field: invalid value")
)

// ValidationError ties a failure to the descriptor (or value) that caused it.
// Index is the descriptor position for normalization errors and -1 for value
// validation.
type ValidationError struct {
	FieldID string
	Index   int
	Reason  string
	Err     error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	subject := fmt.Sprintf("field %q", e.FieldID)
	if e.FieldID == "" && e.Index >= 0 {
		subject = fmt.Sprintf("descriptor #%d", e.Index)
	}
	if e.Reason == "" {
		return fmt.Sprintf("%v: %s", e.Err, subject)
	}
	return fmt.Sprintf("%v: %s: %s", e.Err, subject, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func descriptorError(index int, id string, err error, reason string) error {
	return &ValidationError{FieldID: id, Index: index, Reason: reason, Err: err}
}

func valueError(id string, err error, reason string) error {
	return &ValidationError{FieldID: id, Index: -1, Reason: reason, Err: err}
}
