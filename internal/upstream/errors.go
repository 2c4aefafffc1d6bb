package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrBatchTooLarge is returned when a batch exceeds the source's documented limit.
var ErrBatchTooLarge = errors.New("batch exceeds source limit")

// APIError is a non-2xx response from an upstream.
type APIError struct {
	Source     string
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error %d: %s", e.Source, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsRetryable returns true for rate limiting (429/503) and other server errors.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsRateLimited returns true when the upstream asked us to slow down.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusServiceUnavailable
}

// FetchError is a failed primary-source query.
type FetchError struct {
	Source string
	Query  string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s query %q: %v", e.Source, e.Query, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// EnrichError is a failed secondary-source batch. Callers degrade to primary-only data.
type EnrichError struct {
	Source    string
	BatchSize int
	Err       error
}

func (e *EnrichError) Error() string {
	return fmt.Sprintf("enrich %s batch of %d: %v", e.Source, e.BatchSize, e.Err)
}

func (e *EnrichError) Unwrap() error {
	return e.Err
}
