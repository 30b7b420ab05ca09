package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/autoreel-labs/autoreel/internal/config"
	"github.com/autoreel-labs/autoreel/internal/script"
)

// MockCommandRunner implements CommandRunner for testing
type MockCommandRunner struct {
	RunFunc func(ctx context.Context, name string, args []string) (string, string, error)

	calls []commandCall
}

type commandCall struct {
	name string
	args []string
}

func (m *MockCommandRunner) Run(ctx context.Context, name string, args []string) (string, string, error) {
	m.calls = append(m.calls, commandCall{name: name, args: args})
	if m.RunFunc != nil {
		return m.RunFunc(ctx, name, args)
	}
	return "", "", nil
}

func TestSceneDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		video config.VideoConfig
		scene script.Scene
		want  float64
	}{
		{
			name:  "Narration paced at the default rate",
			scene: script.Scene{Narration: "one two three four five six seven eight nine ten"},
			want:  4.0,
		},
		{
			name:  "Short narration floored at the minimum",
			scene: script.Scene{Narration: "hi"},
			want:  1.0,
		},
		{
			name:  "Empty narration floored at the minimum",
			scene: script.Scene{},
			want:  1.0,
		},
		{
			name:  "Custom pacing",
			video: config.VideoConfig{WordsPerSecond: 2, MinSceneSeconds: 3},
			scene: script.Scene{Narration: "one two three four"},
			want:  3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logger.With("test", t.Name())
			m := NewMerger(log, &MockCommandRunner{}, tt.video)
			require.Equal(t, tt.want, m.SceneDuration(tt.scene))
		})
	}
}

func TestBuildSlideshow(t *testing.T) {
	t.Parallel()

	log := logger.With("test", t.Name())
	outputDir := t.TempDir()
	listPath := filepath.Join(outputDir, "frames.txt")

	scenes := []script.Scene{
		{Index: 0, Narration: "one two three four five"},
		{Index: 1, Narration: "hi"},
	}
	frames := []string{
		filepath.Join(outputDir, "video_frames", "scene_000.png"),
		filepath.Join(outputDir, "video_frames", "scene_001.png"),
	}

	// The concat list is removed after ffmpeg runs, so capture it here.
	var listContent string
	runner := &MockCommandRunner{
		RunFunc: func(ctx context.Context, name string, args []string) (string, string, error) {
			data, err := os.ReadFile(listPath)
			require.NoError(t, err, "frame list should exist while ffmpeg runs")
			listContent = string(data)
			return "", "", nil
		},
	}

	m := NewMerger(log, runner, config.VideoConfig{})
	out, err := m.BuildSlideshow(t.Context(), scenes, frames, outputDir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outputDir, SlideshowFileName), out)

	require.Equal(t,
		"file '"+frames[0]+"'\n"+
			"duration 2.00\n"+
			"file '"+frames[1]+"'\n"+
			"duration 1.00\n"+
			"file '"+frames[1]+"'\n",
		listContent)

	require.Len(t, runner.calls, 1)
	require.Equal(t, "ffmpeg", runner.calls[0].name)
	require.Equal(t, []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-vsync", "vfr",
		"-pix_fmt", "yuv420p",
		"-c:v", "libx264",
		"-r", "24",
		out,
	}, runner.calls[0].args)

	_, err = os.Stat(listPath)
	require.True(t, os.IsNotExist(err), "frame list should be removed after assembly")
}

func TestBuildSlideshow_Validation(t *testing.T) {
	t.Parallel()

	log := logger.With("test", t.Name())
	m := NewMerger(log, &MockCommandRunner{}, config.VideoConfig{})

	_, err := m.BuildSlideshow(t.Context(), nil, nil, t.TempDir())
	require.ErrorContains(t, err, "no frames to assemble")

	_, err = m.BuildSlideshow(t.Context(),
		[]script.Scene{{Index: 0}, {Index: 1}},
		[]string{"frame.png"},
		t.TempDir())
	require.ErrorContains(t, err, "frame count 1 does not match scene count 2")
}

func TestBuildSlideshow_FfmpegError(t *testing.T) {
	t.Parallel()

	log := logger.With("test", t.Name())

	runner := &MockCommandRunner{
		RunFunc: func(ctx context.Context, name string, args []string) (string, string, error) {
			stderr := "ffmpeg version 6.0\nconfiguration: --enable-libx264\nUnknown decoder 'png'"
			return "", stderr, errors.New("exit status 1")
		},
	}

	m := NewMerger(log, runner, config.VideoConfig{})
	_, err := m.BuildSlideshow(t.Context(),
		[]script.Scene{{Index: 0, Narration: "hello"}},
		[]string{"frame.png"},
		t.TempDir())
	require.ErrorContains(t, err, "ffmpeg failed")
	require.ErrorContains(t, err, "Unknown decoder 'png'")
}

func TestConcatAudio(t *testing.T) {
	t.Parallel()

	log := logger.With("test", t.Name())
	outputDir := t.TempDir()
	listPath := filepath.Join(outputDir, "audio_list.txt")

	clips := []string{
		filepath.Join(outputDir, "audio_clips", "scene_000.mp3"),
		filepath.Join(outputDir, "audio_clips", "scene_002.mp3"),
	}

	var listContent string
	runner := &MockCommandRunner{
		RunFunc: func(ctx context.Context, name string, args []string) (string, string, error) {
			data, err := os.ReadFile(listPath)
			require.NoError(t, err, "audio list should exist while ffmpeg runs")
			listContent = string(data)
			return "", "", nil
		},
	}

	m := NewMerger(log, runner, config.VideoConfig{})
	out, err := m.ConcatAudio(t.Context(), clips, outputDir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outputDir, VoiceTrackFileName), out)

	require.Equal(t,
		"file '"+clips[0]+"'\n"+
			"file '"+clips[1]+"'\n",
		listContent)

	require.Len(t, runner.calls, 1)
	require.Equal(t, "ffmpeg", runner.calls[0].name)
	require.Equal(t, []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		out,
	}, runner.calls[0].args)

	_, err = os.Stat(listPath)
	require.True(t, os.IsNotExist(err), "audio list should be removed after assembly")
}

func TestConcatAudio_NoClips(t *testing.T) {
	t.Parallel()

	log := logger.With("test", t.Name())
	m := NewMerger(log, &MockCommandRunner{}, config.VideoConfig{})

	_, err := m.ConcatAudio(t.Context(), nil, t.TempDir())
	require.ErrorContains(t, err, "no audio clips to combine")
}

func TestDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		runFunc func(ctx context.Context, name string, args []string) (string, string, error)
		want    float64
		wantErr string
	}{
		{
			name: "Parses ffprobe output",
			runFunc: func(ctx context.Context, name string, args []string) (string, string, error) {
				return "12.345\n", "", nil
			},
			want: 12.345,
		},
		{
			name: "Unparseable output",
			runFunc: func(ctx context.Context, name string, args []string) (string, string, error) {
				return "N/A\n", "", nil
			},
			wantErr: "failed to parse duration",
		},
		{
			name: "ffprobe failure",
			runFunc: func(ctx context.Context, name string, args []string) (string, string, error) {
				return "", "No such file or directory", errors.New("exit status 1")
			},
			wantErr: "ffprobe failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			log := logger.With("test", t.Name())
			runner := &MockCommandRunner{RunFunc: tt.runFunc}
			m := NewMerger(log, runner, config.VideoConfig{})

			got, err := m.Duration(t.Context(), "media.mp4")
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)

			require.Len(t, runner.calls, 1)
			require.Equal(t, "ffprobe", runner.calls[0].name)
			require.Equal(t, []string{
				"-v", "error",
				"-show_entries", "format=duration",
				"-of", "default=noprint_wrappers=1:nokey=1",
				"media.mp4",
			}, runner.calls[0].args)
		})
	}
}

func writeMergeInputs(t *testing.T, dir string) (videoPath, audioPath string) {
	t.Helper()
	videoPath = filepath.Join(dir, SlideshowFileName)
	audioPath = filepath.Join(dir, VoiceTrackFileName)
	require.NoError(t, os.WriteFile(videoPath, []byte("video"), 0o644))
	require.NoError(t, os.WriteFile(audioPath, []byte("audio"), 0o644))
	return videoPath, audioPath
}

func TestMerge(t *testing.T) {
	t.Parallel()

	log := logger.With("test", t.Name())
	outputDir := t.TempDir()
	videoPath, audioPath := writeMergeInputs(t, outputDir)

	// Audio is shorter than the slideshow, so no retiming happens.
	runner := &MockCommandRunner{
		RunFunc: func(ctx context.Context, name string, args []string) (string, string, error) {
			if name == "ffprobe" {
				if args[len(args)-1] == audioPath {
					return "10.0\n", "", nil
				}
				return "12.0\n", "", nil
			}
			return "", "", nil
		},
	}

	m := NewMerger(log, runner, config.VideoConfig{})
	final, err := m.Merge(t.Context(), videoPath, audioPath, outputDir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outputDir, FinalVideoFileName), final)

	require.Len(t, runner.calls, 3)
	require.Equal(t, "ffprobe", runner.calls[0].name)
	require.Equal(t, "ffprobe", runner.calls[1].name)
	require.Equal(t, "ffmpeg", runner.calls[2].name)
	require.Equal(t, []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		final,
	}, runner.calls[2].args)
}

func TestMerge_RetimesWhenAudioRunsLonger(t *testing.T) {
	t.Parallel()

	log := logger.With("test", t.Name())
	outputDir := t.TempDir()
	videoPath, audioPath := writeMergeInputs(t, outputDir)
	tempPath := filepath.Join(outputDir, "temp_adjusted_video.mp4")

	runner := &MockCommandRunner{
		RunFunc: func(ctx context.Context, name string, args []string) (string, string, error) {
			if name == "ffprobe" {
				if args[len(args)-1] == audioPath {
					return "20.0\n", "", nil
				}
				return "10.0\n", "", nil
			}
			return "", "", nil
		},
	}

	m := NewMerger(log, runner, config.VideoConfig{})
	final, err := m.Merge(t.Context(), videoPath, audioPath, outputDir)
	require.NoError(t, err)

	require.Len(t, runner.calls, 4)
	require.Equal(t, []string{
		"-y",
		"-i", videoPath,
		"-filter:v", "setpts=2.000000*PTS",
		tempPath,
	}, runner.calls[2].args, "video should be slowed by the audio/video ratio")

	// The mux reads the retimed copy, not the original slideshow.
	require.Equal(t, []string{
		"-y",
		"-i", tempPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		final,
	}, runner.calls[3].args)
}

func TestMerge_MissingInputs(t *testing.T) {
	t.Parallel()

	log := logger.With("test", t.Name())
	outputDir := t.TempDir()
	m := NewMerger(log, &MockCommandRunner{}, config.VideoConfig{})

	_, err := m.Merge(t.Context(), filepath.Join(outputDir, "absent.mp4"), filepath.Join(outputDir, "absent.mp3"), outputDir)
	require.ErrorContains(t, err, "video file not found")

	videoPath := filepath.Join(outputDir, SlideshowFileName)
	require.NoError(t, os.WriteFile(videoPath, []byte("video"), 0o644))
	_, err = m.Merge(t.Context(), videoPath, filepath.Join(outputDir, "absent.mp3"), outputDir)
	require.ErrorContains(t, err, "audio file not found")
}

func TestLastLines(t *testing.T) {
	t.Parallel()

	require.Equal(t, "c\nd\ne", lastLines("a\nb\nc\nd\ne", 3))
	require.Equal(t, "a\nb", lastLines("a\nb\n", 5))
	require.Equal(t, "", lastLines("", 3))
}
