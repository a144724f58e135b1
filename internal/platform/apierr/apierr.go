package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is what the HTTP edge renders: a status, a stable machine code, and the cause.
type Error struct {
	Status int
	Code   string
	Err    error
	// Retryable tells the caller that repeating the same request may succeed.
	Retryable bool
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Rule maps a sentinel to the error the edge renders for it.
type Rule struct {
	Target    error
	Status    int
	Code      string
	Retryable bool
}

// Map returns the first rule matching err's chain as an *Error, or err unchanged.
func Map(err error, rules ...Rule) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	for _, r := range rules {
		if errors.Is(err, r.Target) {
			return &Error{Status: r.Status, Code: r.Code, Err: err, Retryable: r.Retryable}
		}
	}
	return err
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

// StatusOf is the status err renders with; unmapped errors are 500.
func StatusOf(err error) int {
	if ae, ok := As(err); ok && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}
