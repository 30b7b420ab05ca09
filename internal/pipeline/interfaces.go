package pipeline

import (
	"context"

	"github.com/autoreel-labs/autoreel/internal/notify"
	"github.com/autoreel-labs/autoreel/internal/prompts"
	"github.com/autoreel-labs/autoreel/internal/script"
	"github.com/autoreel-labs/autoreel/internal/youtube"
)

// ScriptGenerator produces the script artifacts for a prompt.
type ScriptGenerator interface {
	Generate(ctx context.Context, p prompts.Prompt, outputDir string) (*script.Result, error)
}

// FrameRenderer writes one image per scene and returns the frame paths
// in scene order.
type FrameRenderer interface {
	RenderScenes(ctx context.Context, scenes []script.Scene, style, dir string) ([]string, error)
}

// VoiceSynthesizer writes one narration clip per scene and returns the
// clip paths in scene order.
type VoiceSynthesizer interface {
	SynthesizeScenes(ctx context.Context, scenes []script.Scene, outputDir string) ([]string, error)
}

// MediaAssembler turns frames and clips into the final video.
type MediaAssembler interface {
	BuildSlideshow(ctx context.Context, scenes []script.Scene, framePaths []string, outputDir string) (string, error)
	ConcatAudio(ctx context.Context, clips []string, outputDir string) (string, error)
	Merge(ctx context.Context, videoPath, audioPath, outputDir string) (string, error)
	WriteSubtitles(scenes []script.Scene, outputDir string) (string, error)
	AddSubtitles(ctx context.Context, videoPath, srtPath string) (string, error)
}

// VideoUploader publishes the final video and returns its public URL.
type VideoUploader interface {
	Upload(ctx context.Context, videoPath string, meta youtube.Metadata) (string, error)
}

// ArtifactPublisher stores the kept run outputs and returns their
// location.
type ArtifactPublisher interface {
	PublishRun(ctx context.Context, runName string, paths []string) (string, error)
}

// RunNotifier reports a finished run.
type RunNotifier interface {
	Notify(ctx context.Context, report notify.RunReport)
}

// Cleaner removes intermediate files from the run directory.
type Cleaner func(outputDir string) error
