package approval

import "errors"

// ErrNotFound is returned when a decision references an application that
// does not exist.
var ErrNotFound = errors.New("application not found")

// ErrUnauthorized is returned when the submitting approver does not match
// the current step's designated approver.
var ErrUnauthorized = errors.New("unauthorized approval attempt")

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
