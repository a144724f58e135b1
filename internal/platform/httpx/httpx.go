package httpx

import (
	"context"
	"errors"
	"net"
	"strconv"
)

// HTTPStatusCoder is implemented by provider errors that carry a response status.
type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

func IsRetryableHTTPStatus(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

// IsTransportError reports whether err came from the network, a deadline, or a retryable
// status rather than from a well-formed provider response.
func IsTransportError(err error) bool {
	switch Classify(err) {
	case ClassTimeout, ClassCanceled, ClassNetwork:
		return true
	}
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return IsRetryableHTTPStatus(sc.HTTPStatusCode())
	}
	return false
}

const (
	ClassOK       = "ok"
	ClassTimeout  = "timeout"
	ClassCanceled = "canceled"
	ClassNetwork  = "network"
	ClassOther    = "error"
)

// Classify maps err to a low-cardinality label suitable for metrics. HTTP status errors
// yield "http_<code>".
func Classify(err error) string {
	if err == nil {
		return ClassOK
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ClassCanceled
	}
	var sc HTTPStatusCoder
	if errors.As(err, &sc) && sc.HTTPStatusCode() > 0 {
		return "http_" + strconv.Itoa(sc.HTTPStatusCode())
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ClassTimeout
		}
		return ClassNetwork
	}
	return ClassOther
}
