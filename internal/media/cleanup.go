package media

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	tempDirNames = []string{"video_frames", "audio_clips"}
	keepPatterns = []string{FinalVideoFileName, "script.txt", "script_metadata.json"}
)

// CleanupOutputDir removes intermediate media from a run directory,
// keeping the final video and the script artifacts.
func CleanupOutputDir(log *slog.Logger, outputDir string) error {
	for _, name := range tempDirNames {
		dirPath := filepath.Join(outputDir, name)
		if info, err := os.Stat(dirPath); err == nil && info.IsDir() {
			if err := os.RemoveAll(dirPath); err != nil {
				return fmt.Errorf("failed to remove %s: %w", dirPath, err)
			}
			log.Info("Removed directory", slog.String("path", dirPath))
		}
	}

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if shouldKeep(entry.Name()) {
			continue
		}
		filePath := filepath.Join(outputDir, entry.Name())
		if err := os.Remove(filePath); err != nil {
			return fmt.Errorf("failed to remove %s: %w", filePath, err)
		}
		log.Info("Removed file", slog.String("path", filePath))
	}

	return nil
}

// KeptFiles lists the files in a run directory that cleanup preserves.
func KeptFiles(outputDir string) ([]string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !shouldKeep(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(outputDir, entry.Name()))
	}
	return paths, nil
}

func shouldKeep(name string) bool {
	for _, pattern := range keepPatterns {
		if strings.Contains(name, pattern) {
			return true
		}
	}
	// Subtitled variants carry a suffix before the extension.
	return strings.Contains(name, "final_video")
}
