package retry

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"

	ai "github.com/spetersoncode/scholar"
)

// statusCoder is implemented by SDK errors that expose an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// IsTransient reports whether err should be retried. Errors implementing
// ai.CategorizedError decide for themselves; anything else is judged by
// status code, network error type and message.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce ai.CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ai.ErrorTransient
	}

	var sc statusCoder
	if errors.As(err, &sc) && isTransientStatusCode(sc.StatusCode()) {
		return true
	}

	return isTransientNetworkError(err)
}

func isTransientStatusCode(code int) bool {
	return code == 429 || (code >= 500 && code < 600)
}

var transientPatterns = []string{
	"connection reset",
	"connection refused",
	"timeout",
	"temporary failure",
	"service unavailable",
	"too many requests",
	"rate limit",
	"bad gateway",
	"gateway timeout",
}

func isTransientNetworkError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsTemporary {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ETIMEDOUT:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
