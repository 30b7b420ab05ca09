package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/autoreel-labs/autoreel/internal/script"
)

const subtitlesFileName = "subtitles.srt"

// WriteSubtitles renders an SRT file for the scenes, timing each entry
// by the scene's estimated narration length. Returns the SRT path.
func (m *Merger) WriteSubtitles(scenes []script.Scene, outputDir string) (string, error) {
	var srt strings.Builder

	entry := 0
	elapsed := 0.0
	for _, sc := range scenes {
		duration := m.SceneDuration(sc)
		narration := strings.TrimSpace(sc.Narration)
		if narration == "" {
			elapsed += duration
			continue
		}

		entry++
		fmt.Fprintf(&srt, "%d\n", entry)
		fmt.Fprintf(&srt, "%s --> %s\n", srtTimestamp(elapsed), srtTimestamp(elapsed+duration))
		fmt.Fprintf(&srt, "%s\n\n", narration)
		elapsed += duration
	}

	if entry == 0 {
		return "", fmt.Errorf("no narration to subtitle")
	}

	srtPath := filepath.Join(outputDir, subtitlesFileName)
	if err := os.WriteFile(srtPath, []byte(srt.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write subtitles: %w", err)
	}
	return srtPath, nil
}

// AddSubtitles burns the SRT track into the video and returns the path
// of the subtitled copy.
func (m *Merger) AddSubtitles(ctx context.Context, videoPath, srtPath string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	outPath := filepath.Join(filepath.Dir(videoPath), base+"_with_subs.mp4")

	args := []string{
		"-y",
		"-i", videoPath,
		"-vf", fmt.Sprintf("subtitles=%s", srtPath),
		"-c:a", "copy",
		outPath,
	}
	if err := m.ffmpeg(ctx, args); err != nil {
		return "", err
	}

	m.log.Info("Subtitled video created", slog.String("path", outPath))
	return outPath, nil
}

func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int(seconds*1000 + 0.5)
	h := millis / 3600000
	millis %= 3600000
	min := millis / 60000
	millis %= 60000
	s := millis / 1000
	millis %= 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, min, s, millis)
}
