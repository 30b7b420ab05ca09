package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/autoreel-labs/autoreel/internal/config"
	"github.com/autoreel-labs/autoreel/internal/script"
)

const (
	// SlideshowFileName is the silent video assembled from scene frames.
	SlideshowFileName = "video_without_audio.mp4"
	// VoiceTrackFileName is the narration audio concatenated from scene clips.
	VoiceTrackFileName = "voice_audio.mp3"
	// FinalVideoFileName is the muxed video and audio output.
	FinalVideoFileName = "final_video.mp4"

	framesListName   = "frames.txt"
	audioListName    = "audio_list.txt"
	tempAdjustedName = "temp_adjusted_video.mp4"
)

// Merger drives ffmpeg to turn scene frames and narration clips into
// the final video.
type Merger struct {
	runner CommandRunner
	video  config.VideoConfig
	log    *slog.Logger
}

func NewMerger(log *slog.Logger, runner CommandRunner, videoCfg config.VideoConfig) *Merger {
	if runner == nil {
		runner = &ExecCommandRunner{}
	}
	if videoCfg.FrameRate <= 0 {
		videoCfg.FrameRate = 24
	}
	if videoCfg.MinSceneSeconds <= 0 {
		videoCfg.MinSceneSeconds = 1.0
	}
	if videoCfg.WordsPerSecond <= 0 {
		videoCfg.WordsPerSecond = 2.5
	}
	return &Merger{
		runner: runner,
		video:  videoCfg,
		log:    log,
	}
}

// SceneDuration estimates how long a scene stays on screen, derived
// from its narration length and floored at the configured minimum.
func (m *Merger) SceneDuration(sc script.Scene) float64 {
	d := float64(script.WordCount(sc.Narration)) / m.video.WordsPerSecond
	if d < m.video.MinSceneSeconds {
		return m.video.MinSceneSeconds
	}
	return d
}

// BuildSlideshow turns the scene frames into a silent video. Each frame
// is shown for its scene's estimated narration time. Returns the path
// to the slideshow file.
func (m *Merger) BuildSlideshow(ctx context.Context, scenes []script.Scene, framePaths []string, outputDir string) (string, error) {
	if len(framePaths) == 0 {
		return "", fmt.Errorf("no frames to assemble")
	}
	if len(framePaths) != len(scenes) {
		return "", fmt.Errorf("frame count %d does not match scene count %d", len(framePaths), len(scenes))
	}

	listPath := filepath.Join(outputDir, framesListName)

	var list strings.Builder
	for i, frame := range framePaths {
		fmt.Fprintf(&list, "file '%s'\n", frame)
		fmt.Fprintf(&list, "duration %.2f\n", m.SceneDuration(scenes[i]))
	}
	// ffmpeg requires the last entry to be repeated without a duration.
	fmt.Fprintf(&list, "file '%s'\n", framePaths[len(framePaths)-1])

	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write frame list: %w", err)
	}

	outPath := filepath.Join(outputDir, SlideshowFileName)
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-vsync", "vfr",
		"-pix_fmt", "yuv420p",
		"-c:v", "libx264",
		"-r", strconv.Itoa(m.video.FrameRate),
		outPath,
	}
	if err := m.ffmpeg(ctx, args); err != nil {
		return "", err
	}

	if err := os.Remove(listPath); err != nil {
		m.log.Warn("Failed to remove frame list", slog.String("error", err.Error()))
	}

	m.log.Info("Slideshow created", slog.String("path", outPath))
	return outPath, nil
}

// ConcatAudio joins the narration clips into a single MP3 track.
func (m *Merger) ConcatAudio(ctx context.Context, clips []string, outputDir string) (string, error) {
	if len(clips) == 0 {
		return "", fmt.Errorf("no audio clips to combine")
	}

	listPath := filepath.Join(outputDir, audioListName)

	var list strings.Builder
	for _, clip := range clips {
		fmt.Fprintf(&list, "file '%s'\n", clip)
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write audio list: %w", err)
	}

	outPath := filepath.Join(outputDir, VoiceTrackFileName)
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	}
	if err := m.ffmpeg(ctx, args); err != nil {
		return "", err
	}

	if err := os.Remove(listPath); err != nil {
		m.log.Warn("Failed to remove audio list", slog.String("error", err.Error()))
	}

	m.log.Info("Voice track created", slog.String("path", outPath))
	return outPath, nil
}

// Duration reads a media file's length in seconds via ffprobe.
func (m *Merger) Duration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	stdout, stderr, err := m.runner.Run(ctx, "ffprobe", args)
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(stderr))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(stdout), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", strings.TrimSpace(stdout), err)
	}
	return duration, nil
}

// Merge muxes the slideshow with the voice track into the final video.
// When the narration runs longer than the slideshow, the video is
// slowed to match so the audio is never cut off.
func (m *Merger) Merge(ctx context.Context, videoPath, audioPath, outputDir string) (string, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return "", fmt.Errorf("video file not found: %w", err)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("audio file not found: %w", err)
	}

	audioDuration, err := m.Duration(ctx, audioPath)
	if err != nil {
		return "", err
	}
	videoDuration, err := m.Duration(ctx, videoPath)
	if err != nil {
		return "", err
	}

	m.log.Info("Merging audio and video",
		slog.Float64("audio_seconds", audioDuration),
		slog.Float64("video_seconds", videoDuration))

	if audioDuration > videoDuration && videoDuration > 0 {
		tempPath := filepath.Join(outputDir, tempAdjustedName)
		factor := audioDuration / videoDuration

		args := []string{
			"-y",
			"-i", videoPath,
			"-filter:v", fmt.Sprintf("setpts=%.6f*PTS", factor),
			tempPath,
		}
		if err := m.ffmpeg(ctx, args); err != nil {
			return "", err
		}
		defer os.Remove(tempPath)
		videoPath = tempPath
	}

	finalPath := filepath.Join(outputDir, FinalVideoFileName)
	args := []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		finalPath,
	}
	if err := m.ffmpeg(ctx, args); err != nil {
		return "", err
	}

	m.log.Info("Final video created", slog.String("path", finalPath))
	return finalPath, nil
}

func (m *Merger) ffmpeg(ctx context.Context, args []string) error {
	_, stderr, err := m.runner.Run(ctx, "ffmpeg", args)
	if err != nil {
		m.log.Error("ffmpeg failed",
			slog.String("args", strings.Join(args, " ")),
			slog.String("stderr", lastLines(stderr, 5)))
		return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLines(stderr, 5))
	}
	return nil
}

// lastLines trims stderr to its tail, where ffmpeg puts the actual
// error.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
