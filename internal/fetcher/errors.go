package fetcher

import (
	"errors"
	"fmt"
)

var (
	// ErrRetriesExhausted is returned when every attempt failed.
	ErrRetriesExhausted = errors.New("fetch retries exhausted")

	// ErrBodyTooLarge is returned when a response exceeds the body limit.
	ErrBodyTooLarge = errors.New("response body exceeds limit")

	// ErrNotHTML is returned when a successful response is not an HTML page.
	ErrNotHTML = errors.New("response is not HTML")
)

// StatusError reports a response status the crawl cannot use.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}
