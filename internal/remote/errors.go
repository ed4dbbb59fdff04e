package remote

import (
	"errors"
	"fmt"
)

// NetworkError reports a request that failed in transport or returned a
// non-success status (including a 2xx body that reports failure).
type NetworkError struct {
	Op         string // API operation, e.g. "add tag"
	StatusCode int    // 0 when the request never got a response
	Message    string // server-provided error text, if any
	Err        error  // underlying transport error, if any
}

func (e *NetworkError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: API error (%d): %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: API error (%d)", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Unreachable reports whether the server could not be contacted at all.
func (e *NetworkError) Unreachable() bool { return e.Err != nil && e.StatusCode == 0 }

// DecodeError reports a response body that is not the expected JSON shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsNetwork reports whether err is (or wraps) a *NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsDecode reports whether err is (or wraps) a *DecodeError.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsUnreachable reports whether err means the server never answered.
func IsUnreachable(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne) && ne.Unreachable()
}
