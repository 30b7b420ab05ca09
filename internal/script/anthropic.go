package script

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/autoreel-labs/autoreel/internal/config"
)

// AnthropicClient implements LLMClient using the Anthropic API. The SDK
// reads ANTHROPIC_API_KEY from the environment.
type AnthropicClient struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	log       *slog.Logger
}

func NewAnthropicClient(log *slog.Logger, cfg config.ScriptConfig) *AnthropicClient {
	model := anthropic.Model(cfg.Model)
	if cfg.Model == "" {
		model = anthropic.ModelClaude3_5Haiku20241022
	}

	return &AnthropicClient{
		client:    anthropic.NewClient(),
		model:     model,
		maxTokens: int64(cfg.MaxTokens),
		log:       log,
	}
}

// Complete sends a prompt to Claude and returns the response text.
func (c *AnthropicClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	start := time.Now()
	c.log.Debug("Anthropic API call starting",
		slog.String("model", string(c.model)),
		slog.Int64("max_tokens", c.maxTokens),
		slog.Int("user_prompt_len", len(userPrompt)))

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Type: "text", Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	c.log.Debug("Anthropic API call completed",
		slog.Duration("duration", time.Since(start)),
		slog.String("stop_reason", string(msg.StopReason)))

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("no text content in response")
}
