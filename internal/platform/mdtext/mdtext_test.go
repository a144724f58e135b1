package mdtext

import (
	"strings"
	"testing"
)

func TestPlainText(t *testing.T) {
	src := "# Title\n\nSome *emphasis* and a [link](https://example.com).\n\n![img](x.png)\n\n```go\nfmt.Println(1)\n```\n"
	got := PlainText(src)

	for _, want := range []string{"Title", "Some emphasis and a link.", "fmt.Println(1)"} {
		if !strings.Contains(got, want) {
			t.Fatalf("PlainText: missing %q in %q", want, got)
		}
	}
	for _, bad := range []string{"https://example.com", "x.png", "#", "*"} {
		if strings.Contains(got, bad) {
			t.Fatalf("PlainText: unexpected %q in %q", bad, got)
		}
	}
}

func TestPlainTextEmpty(t *testing.T) {
	if got := PlainText("   \n"); got != "" {
		t.Fatalf("PlainText(blank): want empty got=%q", got)
	}
}
