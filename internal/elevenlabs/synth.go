package elevenlabs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alitto/pond/v2"

	"github.com/autoreel-labs/autoreel/internal/script"
)

const defaultSynthesisWorkers = 3

// TextToSpeech converts narration text into MP3 audio.
type TextToSpeech interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Synthesizer produces one narration clip per scene, running a bounded
// number of synthesis requests concurrently.
type Synthesizer struct {
	tts  TextToSpeech
	pool pond.ResultPool[string]
	log  *slog.Logger
}

func NewSynthesizer(log *slog.Logger, tts TextToSpeech, workers int) *Synthesizer {
	if workers <= 0 {
		workers = defaultSynthesisWorkers
	}
	return &Synthesizer{
		tts:  tts,
		pool: pond.NewResultPool[string](workers),
		log:  log,
	}
}

// SynthesizeScenes writes an MP3 clip per scene under
// <outputDir>/audio_clips and returns the clip paths in scene order.
// Scenes without narration are skipped. A scene that still fails after
// retries fails the whole stage.
func (s *Synthesizer) SynthesizeScenes(ctx context.Context, scenes []script.Scene, outputDir string) ([]string, error) {
	audioDir := filepath.Join(outputDir, "audio_clips")
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}

	group := s.pool.NewGroupContext(ctx)

	total := len(scenes)
	for _, sc := range scenes {
		sc := sc

		group.SubmitErr(func() (string, error) {
			narration := strings.TrimSpace(sc.Narration)
			if narration == "" {
				return "", nil
			}

			s.log.Info("Generating voice for scene",
				slog.Int("scene", sc.Index+1),
				slog.Int("total", total))

			audio, err := s.tts.Synthesize(ctx, narration)
			if err != nil {
				return "", fmt.Errorf("failed to synthesize scene %d: %w", sc.Index+1, err)
			}

			path := filepath.Join(audioDir, fmt.Sprintf("scene_%03d.mp3", sc.Index))
			if err := os.WriteFile(path, audio, 0o644); err != nil {
				return "", fmt.Errorf("failed to write audio clip: %w", err)
			}
			return path, nil
		})
	}

	results, err := group.Wait()
	if err != nil {
		return nil, fmt.Errorf("voice synthesis failed: %w", err)
	}

	clips := make([]string, 0, len(results))
	for _, path := range results {
		if path == "" {
			continue
		}
		clips = append(clips, path)
	}

	return clips, nil
}
