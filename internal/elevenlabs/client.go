// Package elevenlabs provides a client for the ElevenLabs
// text-to-speech API and a concurrent scene synthesizer built on it.
package elevenlabs

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

// HTTPClient defines the interface for HTTP operations.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the ElevenLabs text-to-speech API.
type Client struct {
	BaseURL    string
	HTTPClient HTTPClient

	apiKey string
	voice  config.VoiceConfig
	log    *slog.Logger
}

type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Voice      config.VoiceConfig
	HTTPClient HTTPClient
}

func NewClient(log *slog.Logger, voiceCfg config.VoiceConfig) *Client {
	return NewClientWithConfig(log, ClientConfig{
		APIKey: os.Getenv("ELEVENLABS_API_KEY"),
		Voice:  voiceCfg,
	})
}

func NewClientWithConfig(log *slog.Logger, cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.elevenlabs.io/v1"
	}
	if cfg.Voice.VoiceID == "" {
		cfg.Voice.VoiceID = "premade/adam"
	}
	if cfg.Voice.Model == "" {
		cfg.Voice.Model = "eleven_monolingual_v1"
	}
	if cfg.Voice.Stability <= 0 {
		cfg.Voice.Stability = 0.5
	}
	if cfg.Voice.SimilarityBoost <= 0 {
		cfg.Voice.SimilarityBoost = 0.75
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{
			Timeout: 120 * time.Second,
		}
	}

	return &Client{
		BaseURL:    cfg.BaseURL,
		HTTPClient: cfg.HTTPClient,
		apiKey:     cfg.APIKey,
		voice:      cfg.Voice,
		log:        log,
	}
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type textToSpeechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
}

// Synthesize converts text to speech and returns the MP3 bytes.
// Transient failures are retried with exponential backoff.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("ElevenLabs API key not configured")
	}

	payload, err := json.Marshal(textToSpeechRequest{
		Text:    text,
		ModelID: c.voice.Model,
		VoiceSettings: voiceSettings{
			Stability:       c.voice.Stability,
			SimilarityBoost: c.voice.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s", c.BaseURL, c.voice.VoiceID)

	attempt := 0
	return backoff.Retry(ctx, func() ([]byte, error) {
		if attempt > 0 {
			c.log.Warn("Retrying voice synthesis", slog.Int("attempt", attempt))
		}
		attempt++

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		c.setCommonHeaders(req)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to make request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("API request failed with status: %d", resp.StatusCode)
			if retryableStatus(resp.StatusCode) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}

		if len(body) == 0 {
			return nil, backoff.Permanent(fmt.Errorf("empty audio in API response"))
		}
		return body, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(3))
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusRequestTimeout ||
		code >= 500
}
