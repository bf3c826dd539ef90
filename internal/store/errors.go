package store

import "fmt"

// PersistenceError: сбой чтения/записи коллекции (в т.ч. битый JSON).
type PersistenceError struct {
	Collection string
	Op         string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: %s %q: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
