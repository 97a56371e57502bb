package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned when the connection went away between
	// initialization and use, e.g. after a concurrent Close.
	ErrUnavailable = errors.New("store is not available")
	ErrNoInsertID  = errors.New("could not determine inserted id")
)

// InitializationError reports that the database could not be opened or its
// schema created. The manager is left uninitialized so the next call retries.
type InitializationError struct {
	Path string
	Err  error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialize store %s: %v", e.Path, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a failed store operation.
type PersistenceError struct {
	Op  string
	ID  int64
	Err error
}

func (e *PersistenceError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s transaction %d: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s transaction: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
