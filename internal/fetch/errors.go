package fetch

import (
	"fmt"
	"net/http"
)

// IntegrityError is returned when the downloaded content does not hash to the
// expected checksum. The file is left at Path for its directory owner to deal
// with.
type IntegrityError struct {
	URL      string
	Path     string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s (file left at %s)", e.URL, e.Expected, e.Actual, e.Path)
}

// StatusError carries an unexpected HTTP status from the origin.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// FetchError is returned when the resource could not be retrieved at all,
// either because a permanent failure occurred or because every retry was
// spent on transient ones.
type FetchError struct {
	URL      string
	Checksum string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (checksum %s) failed after %d attempt(s): %v", e.URL, e.Checksum, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
