package retention

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/neurogarden-backend/internal/platform/mdtext"
	"github.com/yungbote/neurogarden-backend/internal/platform/openai"
)

const maxPromptBodyRunes = 24000

var generateInstructions = map[Kind]string{
	KindChunk: "You break technical writing into study chunks. Reply with a JSON array of strings only, " +
		"each string one self-contained architectural or conceptual piece of the text, in reading order.",
	KindMnemonic: "You write memory anchors. Reply with a JSON array of short mnemonic phrases " +
		"that help a reader remember the key ideas of the text.",
	KindRecallQuestions: "You write active-recall quiz prompts. Reply with a JSON array of 3 to 5 open questions " +
		"answerable from the text alone.",
	KindSummary: "Summarize the text in at most three sentences of plain prose. No preamble.",
}

const verifyInstructions = "You grade a learner's free-text answer to a recall question about the given content. " +
	"Reply with brief, encouraging feedback: say what is right, what is missing or wrong, and the key point to remember."

type openAIGateway struct {
	client openai.Client
}

// NewOpenAIGateway adapts the provider client to Gateway. Markdown bodies are flattened to plain
// text and truncated before they are sent.
func NewOpenAIGateway(client openai.Client) Gateway {
	return &openAIGateway{client: client}
}

func (g *openAIGateway) Generate(ctx context.Context, kind Kind, title, body string) (string, error) {
	system, ok := generateInstructions[kind]
	if !ok {
		return "", fmt.Errorf("unsupported generation kind %q", kind)
	}
	user := fmt.Sprintf("Title: %s\n\n%s", strings.TrimSpace(title), promptBody(body))
	out, err := g.client.GenerateText(ctx, system, user)
	if err != nil {
		return "", err
	}
	return out, nil
}

func (g *openAIGateway) Verify(ctx context.Context, question, answer, material string) (string, error) {
	user := fmt.Sprintf("Question: %s\n\nLearner answer: %s\n\nContent:\n%s",
		strings.TrimSpace(question), strings.TrimSpace(answer), promptBody(material))
	return g.client.GenerateText(ctx, verifyInstructions, user)
}

func promptBody(body string) string {
	plain := mdtext.PlainText(body)
	r := []rune(plain)
	if len(r) > maxPromptBodyRunes {
		return string(r[:maxPromptBodyRunes])
	}
	return plain
}
