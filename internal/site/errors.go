package site

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized indicates the site rejected the credential or login.
	ErrUnauthorized = errors.New("site rejected the session")
	// ErrNotFound indicates the requested page does not exist.
	ErrNotFound = errors.New("site page not found")
	// ErrUnexpectedMarkup indicates a page no longer matches the expected layout.
	ErrUnexpectedMarkup = errors.New("unexpected site markup")
)

// StatusError reports a non-success HTTP status not covered by a sentinel.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("site responded %d for %s", e.Code, e.URL)
}
