package models

import (
	"errors"
	"fmt"
)

// ErrEventNotFound is returned when no row matches the requested id.
var ErrEventNotFound = errors.New("event not found")

// StoreError wraps a connectivity or query failure of the event store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError reports whether err carries a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
