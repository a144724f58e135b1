package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

var (
	errMissing = errors.New("missing")
	errBusy    = errors.New("busy")
)

func TestMap(t *testing.T) {
	rules := []Rule{
		{Target: errMissing, Status: http.StatusNotFound, Code: "not_found"},
		{Target: errBusy, Status: http.StatusConflict, Code: "busy", Retryable: true},
	}

	err := Map(fmt.Errorf("load: %w", errBusy), rules...)
	ae, ok := As(err)
	if !ok {
		t.Fatalf("want *Error got=%T", err)
	}
	if ae.Status != http.StatusConflict || ae.Code != "busy" || !ae.Retryable {
		t.Fatalf("want 409 busy retryable got=%+v", ae)
	}
	if !errors.Is(err, errBusy) {
		t.Fatalf("cause lost: %v", err)
	}

	plain := errors.New("other")
	if got := Map(plain, rules...); got != plain {
		t.Fatalf("unmatched error should pass through got=%v", got)
	}
	if got := StatusOf(plain); got != http.StatusInternalServerError {
		t.Fatalf("StatusOf: want=500 got=%d", got)
	}
}

func TestMapKeepsExistingError(t *testing.T) {
	orig := New(http.StatusBadRequest, "bad", errMissing)
	got, _ := As(Map(orig, Rule{Target: errMissing, Status: http.StatusNotFound, Code: "not_found"}))
	if got.Status != http.StatusBadRequest {
		t.Fatalf("want=400 got=%d", got.Status)
	}
}
