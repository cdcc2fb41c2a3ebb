package translate

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyText = errors.New("nothing to translate")
	// ErrUnknown covers bodies that carry neither a translation nor an error status,
	// and bodies that are not JSON at all.
	ErrUnknown = errors.New("unknown translation error")
)

// HTTPError is a non-2xx response from the endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("translate: HTTP status %d", e.StatusCode)
}

// StatusError is a 2xx response whose body reports a non-200 responseStatus.
type StatusError struct {
	Status  string
	Details string
}

func (e *StatusError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("translate: response status %s: %s", e.Status, e.Details)
	}
	return "translate: response status " + e.Status
}
