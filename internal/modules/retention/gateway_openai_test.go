package retention

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeTextClient struct {
	system, user string
	reply        string
	err          error
}

func (c *fakeTextClient) GenerateText(ctx context.Context, system, user string) (string, error) {
	c.system, c.user = system, user
	return c.reply, c.err
}

func TestOpenAIGatewayGenerate(t *testing.T) {
	c := &fakeTextClient{reply: `["A"]`}
	gw := NewOpenAIGateway(c)

	out, err := gw.Generate(context.Background(), KindChunk, " Raft ", "# Heading\n\nSome *bold* text.\n\n![img](x.png)")
	if err != nil || out != `["A"]` {
		t.Fatalf("Generate: out=%q err=%v", out, err)
	}
	if c.system != generateInstructions[KindChunk] {
		t.Fatalf("system prompt not selected by kind")
	}
	if !strings.HasPrefix(c.user, "Title: Raft\n\n") || strings.Contains(c.user, "*") || strings.Contains(c.user, "x.png") {
		t.Fatalf("user prompt should carry plain text body, got=%q", c.user)
	}

	if _, err := gw.Generate(context.Background(), Kind("poem"), "t", "b"); err == nil {
		t.Fatalf("unknown kind: expected error")
	}
}

func TestOpenAIGatewayVerifyTruncatesMaterial(t *testing.T) {
	c := &fakeTextClient{reply: "Nice."}
	gw := NewOpenAIGateway(c)
	long := strings.Repeat("x", maxPromptBodyRunes+500)

	if _, err := gw.Verify(context.Background(), "Q?", "A", long); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !strings.Contains(c.user, "Question: Q?") || strings.Count(c.user, "x") != maxPromptBodyRunes {
		t.Fatalf("verify prompt: len=%d", len(c.user))
	}
}

func TestUnavailableGatewayDegradesEnrichment(t *testing.T) {
	gw := NewUnavailableGateway("no provider")
	if _, err := gw.Verify(context.Background(), "q", "a", "body"); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("Verify: want ErrGatewayUnavailable got=%v", err)
	}

	it := newItem()
	p := NewPipeline(testLogger(), gw, newMemStore(it), PipelineConfig{})
	res, err := p.Enrich(context.Background(), it)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if got := res.Count(StageFailed); got != 3 {
		t.Fatalf("failed stages: want=3 got=%d", got)
	}
	if out, _ := res.Stage(KindChunk); !out.Retryable {
		t.Fatalf("unavailable provider should be retryable: %+v", out)
	}
}
