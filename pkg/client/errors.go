package client

import (
	"errors"
	"fmt"
)

// HTTPError represents a non-2xx HTTP response from the API. Message holds
// the decoded `detail` field when the server sent one.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// DecodeError represents a 2xx response whose body could not be decoded
// into the expected shape. It is distinct from HTTPError so callers can
// tell a broken payload apart from a server-side rejection.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decode response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecode returns true if err (or any wrapped error) is a DecodeError.
func IsDecode(err error) bool {
	var decErr *DecodeError
	return errors.As(err, &decErr)
}
