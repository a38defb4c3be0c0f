package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors that can occur during collaborator
// interactions.
var (
	// ErrNotFound indicates that a requested category, entity, or report
	// does not exist in the store.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable indicates that the persistence collaborator is
	// unreachable.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDrawRejected indicates that the draw generator declined to
	// produce entities for the requested level.
	ErrDrawRejected = errors.New("draw generation rejected")
)

// StoreError wraps a persistence failure with the operation and key that
// triggered it.
type StoreError struct {
	// Operation names the store operation that failed.
	Operation string

	// Key identifies the record involved, when applicable.
	Key string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: operation=%s, key=%s, err=%v", e.Operation, e.Key, e.Err)
}

// Unwrap returns the underlying error, supporting errors.Is and errors.As.
func (e *StoreError) Unwrap() error { return e.Err }
