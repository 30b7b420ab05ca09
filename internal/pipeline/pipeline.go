// Package pipeline orchestrates one video generation run from prompt
// to published video.
package pipeline

import (
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

type Config struct {
	Logger *slog.Logger
	Clock  clockwork.Clock

	Script    ScriptGenerator
	Frames    FrameRenderer
	Voice     VoiceSynthesizer
	Media     MediaAssembler
	Uploader  VideoUploader
	Publisher ArtifactPublisher
	Notifier  RunNotifier
	Cleaner   Cleaner

	OutputDir  string
	SkipUpload bool
	Subtitles  bool
	DryRun     bool
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Script == nil {
		return errors.New("script generator is required")
	}
	if cfg.Frames == nil {
		return errors.New("frame renderer is required")
	}
	if cfg.Voice == nil {
		return errors.New("voice synthesizer is required")
	}
	if cfg.Media == nil {
		return errors.New("media assembler is required")
	}
	if cfg.Uploader == nil && !cfg.SkipUpload {
		return errors.New("video uploader is required unless upload is skipped")
	}
	if cfg.OutputDir == "" {
		return errors.New("output directory is required")
	}
	return nil
}

// Runner executes pipeline runs.
type Runner struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return &Runner{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

// Result captures what one run produced.
type Result struct {
	Topic        string
	RunDir       string
	ScriptPath   string
	MetadataPath string
	SceneCount   int
	FrameCount   int
	ClipCount    int
	VideoPath    string
	VideoURL     string
	ArtifactURL  string
	Elapsed      time.Duration
}
