package retention

import (
	"context"
	"fmt"
)

// Kind selects what Gateway.Generate produces.
type Kind string

const (
	KindChunk           Kind = "chunk"
	KindMnemonic        Kind = "mnemonic"
	KindRecallQuestions Kind = "recall_questions"
	KindSummary         Kind = "summary"
)

// Gateway is the single AI provider boundary. Both calls are single-shot text in, text out.
type Gateway interface {
	Generate(ctx context.Context, kind Kind, title, body string) (string, error)
	Verify(ctx context.Context, question, answer, material string) (string, error)
}

type unavailableGateway struct {
	reason string
}

// NewUnavailableGateway fails every call with ErrGatewayUnavailable. It stands in when no
// provider is configured so that enrichment degrades per stage instead of refusing to start.
func NewUnavailableGateway(reason string) Gateway {
	return unavailableGateway{reason: reason}
}

func (g unavailableGateway) Generate(context.Context, Kind, string, string) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrGatewayUnavailable, g.reason)
}

func (g unavailableGateway) Verify(context.Context, string, string, string) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrGatewayUnavailable, g.reason)
}
