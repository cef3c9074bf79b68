// Package apperr defines the per-document error taxonomy.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedDocument means no frontmatter block could be delimited.
	ErrMalformedDocument = errors.New("malformed frontmatter")
	// ErrMissingField means a required frontmatter field is absent.
	ErrMissingField = errors.New("required field missing")
	// ErrAlreadyPresent means the target field already holds the wanted content.
	ErrAlreadyPresent = errors.New("already present")
	// ErrNoInsertionPoint means neither the field nor a host block exists.
	ErrNoInsertionPoint = errors.New("no insertion point")
)

// DocumentError ties a taxonomy error to the document it was raised for.
type DocumentError struct {
	Path   string
	Detail string
	Err    error
}

func (e *DocumentError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Path, e.Err, e.Detail)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Document wraps err with the document path and an optional detail.
func Document(path string, err error, detail string) error {
	return &DocumentError{Path: path, Detail: detail, Err: err}
}

// IsLocal reports whether err only affects a single document.
func IsLocal(err error) bool {
	return errors.Is(err, ErrMalformedDocument) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrAlreadyPresent) ||
		errors.Is(err, ErrNoInsertionPoint)
}

// Detail returns the human-readable reason carried by a DocumentError, or
// the error text itself.
func Detail(err error) string {
	var de *DocumentError
	if errors.As(err, &de) {
		if de.Detail != "" {
			return de.Detail
		}
		return de.Err.Error()
	}
	return err.Error()
}
