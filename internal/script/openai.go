package script

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/autoreel-labs/autoreel/internal/config"
)

// HTTPClient defines the interface for HTTP operations so tests can
// substitute transports.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// OpenAIClient implements LLMClient against the chat completions API.
type OpenAIClient struct {
	BaseURL    string
	HTTPClient HTTPClient

	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	log         *slog.Logger
}

type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	HTTPClient  HTTPClient
}

func NewOpenAIClient(log *slog.Logger, cfg config.ScriptConfig) *OpenAIClient {
	return NewOpenAIClientWithConfig(log, OpenAIConfig{
		APIKey:      os.Getenv("OPENAI_API_KEY"),
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
}

func NewOpenAIClientWithConfig(log *slog.Logger, cfg OpenAIConfig) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4-turbo"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{
			Timeout: 120 * time.Second,
		}
	}

	return &OpenAIClient{
		BaseURL:     cfg.BaseURL,
		HTTPClient:  cfg.HTTPClient,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		log:         log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) setCommonHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")
}

// Complete sends a chat completion request and returns the first choice.
// Transient failures (429, 5xx, transport errors) are retried with
// exponential backoff; other API errors are permanent.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	messages := []chatMessage{}
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	payload, err := json.Marshal(chatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	attempt := 0
	return backoff.Retry(ctx, func() (string, error) {
		if attempt > 0 {
			c.log.Warn("Retrying OpenAI completion", slog.Int("attempt", attempt))
		}
		attempt++

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return "", backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		c.setCommonHeaders(req)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("failed to make request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to read response: %w", err)
		}

		if !statusOK(resp.StatusCode) {
			err := fmt.Errorf("API request failed with status: %d", resp.StatusCode)
			if retryableStatus(resp.StatusCode) {
				return "", err
			}
			return "", backoff.Permanent(err)
		}

		var completion chatCompletionResponse
		if err := json.Unmarshal(body, &completion); err != nil {
			return "", backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		if completion.Error != nil {
			return "", backoff.Permanent(fmt.Errorf("API error: %s", completion.Error.Message))
		}
		if len(completion.Choices) == 0 {
			return "", backoff.Permanent(fmt.Errorf("no choices in response"))
		}

		c.log.Debug("OpenAI completion finished",
			slog.String("model", completion.Model),
			slog.Int("total_tokens", completion.Usage.TotalTokens),
			slog.String("finish_reason", completion.Choices[0].FinishReason))

		return completion.Choices[0].Message.Content, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(4))
}

func statusOK(code int) bool {
	return code >= 200 && code < 300
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusRequestTimeout ||
		code >= 500
}
