package call

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrValidation marks caller input errors. Wrap it with context:
//
//	fmt.Errorf("%w: ein must be 9 digits", call.ErrValidation)
var ErrValidation = errors.New("validation failed")

// HTTPError is a non-2xx response from a real dependency.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("dependency returned %d: %s", e.Status, e.Body)
}

// NewHTTPError builds an HTTPError, truncating oversized bodies so a
// misbehaving dependency cannot bloat logs or audit records.
func NewHTTPError(status int, body []byte) *HTTPError {
	const maxBody = 512
	s := string(body)
	if len(s) > maxBody {
		s = s[:maxBody]
	}
	return &HTTPError{Status: status, Body: s}
}

// Classify maps an error to its ErrorKind per the taxonomy: 4xx except 429
// and validation errors are client errors; everything else that went wrong
// while talking to the dependency is transient.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrValidation) {
		return ErrorKindClient
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Status >= 400 && httpErr.Status < 500 && httpErr.Status != http.StatusTooManyRequests {
			return ErrorKindClient
		}
		return ErrorKindTransient
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorKindTransient
	}
	// Network failures arrive as *url.Error / *net.OpError chains.
	return ErrorKindTransient
}

// Retryable reports whether the retry loop may attempt the call again.
func Retryable(err error) bool {
	return Classify(err) == ErrorKindTransient
}
