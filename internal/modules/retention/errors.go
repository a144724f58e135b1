package retention

import (
	"errors"
	"fmt"

	"github.com/yungbote/neurogarden-backend/internal/platform/httpx"
)

var (
	ErrGatewayUnavailable       = errors.New("retention: ai gateway unavailable")
	ErrGatewayMalformedResponse = errors.New("retention: malformed ai gateway response")
	ErrNotFound                 = errors.New("retention: content item not found")
	ErrAlreadyRunning           = errors.New("retention: enrichment already running")
	ErrInvalidInput             = errors.New("retention: invalid input")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrGatewayMalformedResponse, fmt.Sprintf(format, args...))
}

// gatewayError maps anything a Gateway call returned onto the engine taxonomy.
// Deadline and transport failures, provider errors and refusals all count as unavailable
// unless the gateway itself already reported a malformed response.
func gatewayError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrGatewayMalformedResponse) || errors.Is(err, ErrGatewayUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
}

// retryable reports whether repeating the call may succeed. Malformed output and provider
// 4xx responses are expected to repeat.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if httpx.IsTransportError(err) {
		return true
	}
	var sc httpx.HTTPStatusCoder
	if errors.As(err, &sc) {
		return httpx.IsRetryableHTTPStatus(sc.HTTPStatusCode())
	}
	return !errors.Is(err, ErrGatewayMalformedResponse)
}

// gatewayStatus labels a Gateway call result for metrics.
func gatewayStatus(err error) string {
	if errors.Is(err, ErrGatewayMalformedResponse) {
		return "malformed"
	}
	return httpx.Classify(err)
}
