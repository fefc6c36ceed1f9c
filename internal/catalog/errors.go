package catalog

import (
	"errors"
	"fmt"
)

// ErrRateLimited is returned only when a capped RetryPolicy runs out of
// attempts. With the default policy rate limiting never surfaces.
var ErrRateLimited = errors.New("catalog rate limit exceeded")

// ErrInvalidID rejects non-positive anime ids before any request is made.
var ErrInvalidID = errors.New("anime id must be positive")

// RemoteError is a non-2xx, non-429 response from the catalog.
type RemoteError struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("catalog %s returned %d: %s", e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("catalog %s returned %d", e.Path, e.StatusCode)
}

// TransportError means no response was obtained at all.
type TransportError struct {
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the catalog.
func IsNotFound(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote) && remote.StatusCode == 404
}
