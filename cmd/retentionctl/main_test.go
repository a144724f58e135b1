package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestParseItemID(t *testing.T) {
	id := uuid.New()
	got, err := parseItemID(id.String())
	if err != nil || got != id {
		t.Fatalf("want=%v got=%v err=%v", id, got, err)
	}
	if _, err := parseItemID("not-a-uuid"); err == nil {
		t.Fatalf("expected error for malformed id")
	}
}

func TestPrintJSONIndents(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, map[string]any{"items": []string{}}); err != nil {
		t.Fatalf("printJSON: %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "\n  \"items\": []") {
		t.Fatalf("want indented items got=%q", got)
	}
}

func TestEnrichRequiresExactlyOneTarget(t *testing.T) {
	cmd := enrichCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "exactly one") {
		t.Fatalf("want exactly-one error got=%v", err)
	}
}
