package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not_found")
	ErrMalformedDocument = errors.New("malformed_document")
	ErrInvalidKey        = errors.New("invalid_key")
	ErrInvalidIdentity   = errors.New("invalid_identity")
	ErrIdentityMismatch  = errors.New("identity_mismatch")
)

// StorageError reports a storage operation that failed for a reason other
// than a missing or unparsable record.
type StorageError struct {
	Op   string
	Kind string
	Key  string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Kind, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err carries a StorageError.
func IsStorageError(err error) bool {
	var sErr *StorageError
	return errors.As(err, &sErr)
}

// FieldError describes one rejected field.
type FieldError struct {
	Field   string
	Code    string
	Message string
}

// ValidationError collects every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation error"
	}
	return fmt.Sprintf("validation error: %s %s", e.Fields[0].Field, e.Fields[0].Message)
}

// AsValidationError extracts a ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) && vErr != nil {
		return vErr, true
	}
	return nil, false
}
