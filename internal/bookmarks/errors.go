package bookmarks

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Update and Get when no bookmark has the id.
var ErrNotFound = errors.New("bookmark not found")

// ErrUnavailable is returned by Get and the mutations while the slot cannot
// be read. Nothing is written until a read succeeds.
var ErrUnavailable = errors.New("bookmark slot unavailable")

// PersistenceError reports a failed snapshot write. The in-memory mutation
// that preceded it has already taken effect and is not rolled back.
type PersistenceError struct {
	Op  string // "create", "update" or "delete"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s to slot %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistenceError reports whether err carries a *PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
