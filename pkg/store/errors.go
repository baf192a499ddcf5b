package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel for a missing document.
var ErrNotFound = errors.New("document not found")

// NotFoundError wraps ErrNotFound with the collection and ID looked up.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document not found: %s/%s", e.Collection, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a typed not-found error for a document lookup.
func NewNotFoundError(collection, id string) error {
	return &NotFoundError{Collection: collection, ID: id}
}

// IsNotFound reports whether err is a missing-document error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
