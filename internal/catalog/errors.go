package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog operations.
var (
	ErrNotFound    = errors.New("catalog: not found")
	ErrUpstream    = errors.New("catalog: upstream failure")
	ErrInvalidISBN = errors.New("catalog: invalid ISBN")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op    string // "lookup", "search", "stats"
	Query string
	Err   error
}

func (e *Error) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("catalog %s [%s]: %v", e.Op, e.Query, e.Err)
	}
	return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, query string, err error) error {
	return &Error{Op: op, Query: query, Err: err}
}
