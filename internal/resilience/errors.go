// Package resilience provides retry policies and error classification for
// page fetches.
package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// TransientError marks a page fetch failure worth another attempt: a
// throttled or failing listing, a block page, or a browser element that
// never appeared. StatusCode is 0 when no HTTP response was seen.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError marks err as retryable.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// fetchFaults are substrings of errors that colly, net/http and the
// browser driver raise when the site or the network hiccups.
var fetchFaults = []string{
	"connection reset by peer",
	"broken pipe",
	"temporary failure in name resolution",
	"no such host",
	"tls handshake timeout",
	"i/o timeout",
	"server closed idle connection",
	"transport connection broken",
	"context deadline exceeded",
	"timeout exceeded",
}

// IsTransient reports whether a fetch error should be retried. Marked
// errors, deadlines, network timeouts, refused or reset connections and the
// known fetch fault messages all count.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	// A page or element that did not load in time.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if isNetworkFault(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, f := range fetchFaults {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}

func isNetworkFault(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED)
}

// IsTransientHTTPStatus reports whether a listing response status means the
// site is throttling or briefly down.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
