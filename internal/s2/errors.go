package s2

import (
	"errors"
	"fmt"
)

// Common errors returned by the Semantic Scholar client.
var (
	// ErrNetworkError indicates a transport-level failure.
	ErrNetworkError = errors.New("semantic-scholar: request failed")

	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("semantic-scholar: rate limit exceeded")

	// ErrInvalidResponse indicates an unparseable response body.
	ErrInvalidResponse = errors.New("semantic-scholar: invalid JSON response")
)

// APIError represents an HTTP error response from the Graph API.
type APIError struct {
	StatusCode int
	PaperID    string
}

func (e *APIError) Error() string {
	if e.PaperID != "" {
		return fmt.Sprintf("semantic-scholar: error %d for %s", e.StatusCode, e.PaperID)
	}
	return fmt.Sprintf("semantic-scholar: error %d", e.StatusCode)
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 429
}
