package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// RequiredSecrets are the API credentials every run needs. They are
// validated before any stage executes so a misconfigured CI job fails
// before spending tokens or rendering anything.
var RequiredSecrets = []string{
	"OPENAI_API_KEY",
	"ELEVENLABS_API_KEY",
	"GOOGLE_API_KEY",
	"YOUTUBE_CLIENT_ID",
	"YOUTUBE_CLIENT_SECRET",
	"STABILITY_API_KEY",
}

// Config represents the complete tuning configuration for a run.
type Config struct {
	Script   ScriptConfig   `toml:"script"`
	Image    ImageConfig    `toml:"image"`
	Voice    VoiceConfig    `toml:"voice"`
	Video    VideoConfig    `toml:"video"`
	Artifact ArtifactConfig `toml:"artifact"`
	Notify   NotifyConfig   `toml:"notify"`
}

// ScriptConfig selects and tunes the narration script provider. An
// empty Model uses the provider's default.
type ScriptConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

// ImageConfig tunes scene image rendering.
type ImageConfig struct {
	Engine         string  `toml:"engine"`
	Width          int     `toml:"width"`
	Height         int     `toml:"height"`
	CfgScale       float64 `toml:"cfg_scale"`
	Steps          int     `toml:"steps"`
	RequestDelayMS int     `toml:"request_delay_ms"`
}

// VoiceConfig tunes voice-over synthesis.
type VoiceConfig struct {
	VoiceID         string  `toml:"voice_id"`
	Model           string  `toml:"model"`
	Stability       float64 `toml:"stability"`
	SimilarityBoost float64 `toml:"similarity_boost"`
	Workers         int     `toml:"workers"`
}

// VideoConfig tunes slideshow assembly and pacing.
type VideoConfig struct {
	FrameRate       int     `toml:"frame_rate"`
	MinSceneSeconds float64 `toml:"min_scene_seconds"`
	WordsPerSecond  float64 `toml:"words_per_second"`
	Subtitles       bool    `toml:"subtitles"`
}

// ArtifactConfig configures publication of run outputs to S3-compatible
// storage. Publication is skipped when Bucket is empty.
type ArtifactConfig struct {
	Bucket          string  `toml:"bucket"`
	Region          string  `toml:"region"`
	AccessKeyID     string  `toml:"access_key_id"`
	SecretAccessKey string  `toml:"secret_access_key"`
	EndpointURL     *string `toml:"endpoint_url,omitempty"`
	KeyPrefix       *string `toml:"key_prefix,omitempty"`
	RetentionDays   int     `toml:"retention_days"`
	VerifyUpload    bool    `toml:"verify_upload"`
}

// NotifyConfig configures the completion notification. Notification is
// skipped when WebhookURL is empty.
type NotifyConfig struct {
	WebhookURL string `toml:"webhook_url"`
}

// DefaultConfig returns a Config with default values matching the
// production pipeline tuning.
func DefaultConfig() *Config {
	return &Config{
		Script: ScriptConfig{
			Provider:    "openai",
			MaxTokens:   2000,
			Temperature: 0.7,
		},
		Image: ImageConfig{
			Engine:         "stable-diffusion-xl-1024-v1-0",
			Width:          1024,
			Height:         1024,
			CfgScale:       7,
			Steps:          30,
			RequestDelayMS: 1000,
		},
		Voice: VoiceConfig{
			VoiceID:         "premade/adam",
			Model:           "eleven_monolingual_v1",
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Workers:         3,
		},
		Video: VideoConfig{
			FrameRate:       24,
			MinSceneSeconds: 1.0,
			WordsPerSecond:  2.5,
			Subtitles:       false,
		},
		Artifact: ArtifactConfig{
			RetentionDays: 2,
			VerifyUpload:  true,
		},
	}
}

// Load loads configuration from a TOML file, environment variables, and
// applies defaults. Priority: CLI flags > Environment variables > Config
// file > Defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	}

	// Override with environment variables
	if v := os.Getenv("AUTOREEL_SCRIPT_PROVIDER"); v != "" {
		cfg.Script.Provider = v
	}
	if v := os.Getenv("AUTOREEL_SCRIPT_MODEL"); v != "" {
		cfg.Script.Model = v
	}
	if v := os.Getenv("AUTOREEL_IMAGE_ENGINE"); v != "" {
		cfg.Image.Engine = v
	}
	if v := os.Getenv("AUTOREEL_VOICE_ID"); v != "" {
		cfg.Voice.VoiceID = v
	}
	if v := os.Getenv("AUTOREEL_ARTIFACT_BUCKET"); v != "" {
		cfg.Artifact.Bucket = v
	}
	if v := os.Getenv("AUTOREEL_ARTIFACT_REGION"); v != "" {
		cfg.Artifact.Region = v
	}
	if v := os.Getenv("AUTOREEL_ARTIFACT_ACCESS_KEY_ID"); v != "" {
		cfg.Artifact.AccessKeyID = v
	}
	if v := os.Getenv("AUTOREEL_ARTIFACT_SECRET_ACCESS_KEY"); v != "" {
		cfg.Artifact.SecretAccessKey = v
	}
	if v := os.Getenv("AUTOREEL_ARTIFACT_ENDPOINT_URL"); v != "" {
		cfg.Artifact.EndpointURL = &v
	}
	if v := os.Getenv("AUTOREEL_ARTIFACT_KEY_PREFIX"); v != "" {
		cfg.Artifact.KeyPrefix = &v
	}
	if v := os.Getenv("AUTOREEL_ARTIFACT_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.Artifact.RetentionDays = days
		}
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Notify.WebhookURL = v
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Script.Provider {
	case "openai", "gemini", "anthropic":
	default:
		return fmt.Errorf("invalid script provider: %s. Must be 'openai', 'gemini' or 'anthropic'", c.Script.Provider)
	}
	if c.Script.MaxTokens <= 0 {
		return fmt.Errorf("script max_tokens must be greater than 0")
	}
	if c.Script.Temperature < 0 || c.Script.Temperature > 2 {
		return fmt.Errorf("script temperature must be between 0 and 2")
	}
	if c.Image.Width <= 0 || c.Image.Height <= 0 {
		return fmt.Errorf("image dimensions must be greater than 0")
	}
	if c.Image.Steps <= 0 {
		return fmt.Errorf("image steps must be greater than 0")
	}
	if c.Voice.Workers <= 0 {
		return fmt.Errorf("voice workers must be greater than 0")
	}
	if c.Video.FrameRate <= 0 {
		return fmt.Errorf("video frame_rate must be greater than 0")
	}
	if c.Video.WordsPerSecond <= 0 {
		return fmt.Errorf("video words_per_second must be greater than 0")
	}
	if c.Artifact.Bucket != "" {
		if c.Artifact.Region == "" {
			return fmt.Errorf("artifact region cannot be empty when a bucket is configured")
		}
		if c.Artifact.RetentionDays <= 0 {
			return fmt.Errorf("artifact retention_days must be greater than 0")
		}
	}
	// Static credentials are optional (the default AWS chain covers CI
	// roles), but a half-configured pair is always a mistake.
	if (c.Artifact.AccessKeyID == "") != (c.Artifact.SecretAccessKey == "") {
		return fmt.Errorf("artifact access_key_id and secret_access_key must be set together")
	}
	return nil
}

// ApplyOverrides applies CLI flag overrides to the configuration.
func (c *Config) ApplyOverrides(bucket, region *string) {
	if bucket != nil && *bucket != "" {
		c.Artifact.Bucket = *bucket
	}
	if region != nil && *region != "" {
		c.Artifact.Region = *region
	}
}

// MissingSecrets returns the names of required secrets that are unset.
func MissingSecrets() []string {
	var missing []string
	for _, name := range RequiredSecrets {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
