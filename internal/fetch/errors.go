package fetch

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// StatusError reports a response with a non-2xx status code.
type StatusError struct {
	URL        string
	StatusCode int
	// Reason is the status text, e.g. "Not Found".
	Reason string
}

func newStatusError(rawURL string, resp *http.Response) *StatusError {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Reason: reason}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP Error %d: %s", e.StatusCode, e.Reason)
}

// TransportError reports a failure delivering the request or receiving the
// response: DNS, connection refused, TLS, timeouts, truncated bodies. It never
// carries a status code.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusCode returns the upstream status code carried by err, if any.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}

// IsTransport reports whether err is a transport failure without a status.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
