package script

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/autoreel-labs/autoreel/internal/config"
)

// NewLLMClient builds the configured script provider. The default is
// the hand-rolled OpenAI client; gemini and anthropic are selected via
// the [script] provider setting or AUTOREEL_SCRIPT_PROVIDER.
func NewLLMClient(ctx context.Context, log *slog.Logger, cfg config.ScriptConfig) (LLMClient, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIClient(log, cfg), nil
	case "gemini":
		return NewGeminiClient(ctx, log, cfg)
	case "anthropic":
		return NewAnthropicClient(log, cfg), nil
	default:
		return nil, fmt.Errorf("unknown script provider: %s", cfg.Provider)
	}
}
