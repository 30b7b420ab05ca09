package stability

import (
	"bytes"
	"context"
	"encoding/base64"
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

// Client calls the Stability AI text-to-image API.
type Client struct {
	BaseURL    string
	HTTPClient HTTPClient

	apiKey string
	image  config.ImageConfig
	log    *slog.Logger
}

type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Image      config.ImageConfig
	HTTPClient HTTPClient
}

func NewClient(log *slog.Logger, imageCfg config.ImageConfig) *Client {
	return NewClientWithConfig(log, ClientConfig{
		APIKey: os.Getenv("STABILITY_API_KEY"),
		Image:  imageCfg,
	})
}

func NewClientWithConfig(log *slog.Logger, cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.stability.ai/v1"
	}
	if cfg.Image.Engine == "" {
		cfg.Image.Engine = "stable-diffusion-xl-1024-v1-0"
	}
	if cfg.Image.Width <= 0 {
		cfg.Image.Width = 1024
	}
	if cfg.Image.Height <= 0 {
		cfg.Image.Height = 1024
	}
	if cfg.Image.CfgScale <= 0 {
		cfg.Image.CfgScale = 7
	}
	if cfg.Image.Steps <= 0 {
		cfg.Image.Steps = 30
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{
			Timeout: 90 * time.Second,
		}
	}

	return &Client{
		BaseURL:    cfg.BaseURL,
		HTTPClient: cfg.HTTPClient,
		apiKey:     cfg.APIKey,
		image:      cfg.Image,
		log:        log,
	}
}

type textPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type textToImageRequest struct {
	TextPrompts []textPrompt `json:"text_prompts"`
	CfgScale    float64      `json:"cfg_scale"`
	Height      int          `json:"height"`
	Width       int          `json:"width"`
	Samples     int          `json:"samples"`
	Steps       int          `json:"steps"`
}

type textToImageResponse struct {
	Artifacts []struct {
		Base64       string `json:"base64"`
		Seed         int64  `json:"seed"`
		FinishReason string `json:"finishReason"`
	} `json:"artifacts"`
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// GenerateImage renders one image for the prompt and returns the
// decoded PNG bytes. Transient failures are retried with exponential
// backoff.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("Stability API key not configured")
	}

	payload, err := json.Marshal(textToImageRequest{
		TextPrompts: []textPrompt{{Text: prompt, Weight: 1.0}},
		CfgScale:    c.image.CfgScale,
		Height:      c.image.Height,
		Width:       c.image.Width,
		Samples:     1,
		Steps:       c.image.Steps,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/generation/%s/text-to-image", c.BaseURL, c.image.Engine)

	attempt := 0
	return backoff.Retry(ctx, func() ([]byte, error) {
		if attempt > 0 {
			c.log.Warn("Retrying image generation", slog.Int("attempt", attempt))
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

		var generation textToImageResponse
		if err := json.Unmarshal(body, &generation); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		if len(generation.Artifacts) == 0 {
			return nil, backoff.Permanent(fmt.Errorf("no image data in API response"))
		}

		img, err := base64.StdEncoding.DecodeString(generation.Artifacts[0].Base64)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to decode image data: %w", err))
		}
		return img, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(3))
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusRequestTimeout ||
		code >= 500
}
