package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/yungbote/neurogarden-backend/internal/observability"
	"github.com/yungbote/neurogarden-backend/internal/platform/envutil"
	"github.com/yungbote/neurogarden-backend/internal/platform/logger"
)

// Client is the text-in/text-out surface the backend needs from the provider.
type Client interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// ConfigFromEnv reads OPENAI_* variables.
func ConfigFromEnv() Config {
	return Config{
		APIKey:     envutil.String("OPENAI_API_KEY", ""),
		BaseURL:    envutil.String("OPENAI_BASE_URL", ""),
		Model:      envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		Timeout:    envutil.Seconds("OPENAI_TIMEOUT_SECONDS", 90*time.Second),
		MaxRetries: envutil.Int("OPENAI_MAX_RETRIES", 2),
	}
}

type client struct {
	log   *logger.Logger
	api   oai.Client
	model string
}

func NewClient(cfg Config, log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("openai model is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &client{
		log:   log.With("service", "OpenAIClient"),
		api:   oai.NewClient(opts...),
		model: cfg.Model,
	}, nil
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: oai.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(system),
			oai.UserMessage(user),
		},
	})
	if err != nil {
		observability.Current().ObserveLLMRequest(c.model, "error", time.Since(start), 0, 0)
		c.log.Warn("OpenAI request failed", "model", c.model, "duration_ms", time.Since(start).Milliseconds(), "error", err.Error())
		return "", wrapAPIError(err)
	}
	observability.Current().ObserveLLMRequest(c.model, "ok", time.Since(start), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", msg.Refusal)
	}
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return "", errors.New("openai: empty content")
	}
	c.log.Debug("OpenAI request ok", "model", c.model, "duration_ms", time.Since(start).Milliseconds())
	return text, nil
}

// StatusError carries the provider's HTTP status so callers can classify it with httpx.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string       { return fmt.Sprintf("openai http %d: %v", e.StatusCode, e.Err) }
func (e *StatusError) Unwrap() error       { return e.Err }
func (e *StatusError) HTTPStatusCode() int { return e.StatusCode }

func wrapAPIError(err error) error {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return &StatusError{StatusCode: apiErr.StatusCode, Err: err}
	}
	return err
}
