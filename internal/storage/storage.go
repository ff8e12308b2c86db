// Package storage defines the document storage contract shared by the file
// and sqlite backends.
package storage

import (
	"errors"
	"fmt"
)

// ErrEmptyLocator is returned when no storage location was configured.
var ErrEmptyLocator = errors.New("storage location not set")

// Error reports a failed storage operation. State held in memory is never
// affected by it.
type Error struct {
	Op      string
	Locator string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Locator, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns nil for a nil err and a *Error otherwise.
func Wrap(op, locator string, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Op: op, Locator: locator, Err: err}
}

// ExportResult is the outcome shown to the user after writing a report.
type ExportResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}
