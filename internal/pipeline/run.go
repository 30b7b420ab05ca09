package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/autoreel-labs/autoreel/internal/notify"
	"github.com/autoreel-labs/autoreel/internal/prompts"
	"github.com/autoreel-labs/autoreel/internal/youtube"
)

// Run executes one full pipeline run for the prompt: script, frames
// and voice, merge, upload, artifact publication, cleanup. Frames and
// voice run concurrently since both depend only on the extracted
// scenes.
func (r *Runner) Run(ctx context.Context, p prompts.Prompt) (result *Result, runErr error) {
	start := r.cfg.Clock.Now()

	r.log.Info("Starting video pipeline",
		slog.String("topic", p.Topic),
		slog.String("style", p.Style),
		slog.String("length", p.Length))

	if p.Topic == "" {
		return nil, ErrMissingTopic
	}

	runDir := filepath.Join(r.cfg.OutputDir, strings.ReplaceAll(p.Topic, " ", "_"))

	if r.cfg.DryRun {
		r.log.Info("Dry run, skipping external calls",
			slog.String("run_dir", runDir),
			slog.Bool("skip_upload", r.cfg.SkipUpload),
			slog.Bool("subtitles", r.cfg.Subtitles))
		return &Result{Topic: p.Topic, RunDir: runDir}, nil
	}

	res := &Result{Topic: p.Topic, RunDir: runDir}
	defer func() {
		res.Elapsed = r.cfg.Clock.Since(start)
		r.sendNotification(ctx, res, runErr)
	}()

	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, NewFileIOError("setup", "failed to create run directory", err)
	}

	r.log.Info("Stage script: generating narration script")
	scriptRes, err := r.cfg.Script.Generate(ctx, p, runDir)
	if err != nil {
		return nil, NewAPIError("script_generation", "script generation failed", err)
	}
	res.ScriptPath = scriptRes.ScriptPath
	res.MetadataPath = scriptRes.MetadataPath

	scenes := scriptRes.Scenes
	if len(scenes) == 0 {
		return nil, ErrNoScenes
	}
	res.SceneCount = len(scenes)
	r.log.Info("Script ready",
		slog.Int("scenes", len(scenes)),
		slog.Int("words", scriptRes.Metadata.WordCount))

	// Frames and voice in parallel, joined before the merge.
	gctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg        sync.WaitGroup
		frames    []string
		clips     []string
		slideshow string
		voice     string
	)
	errChan := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		r.log.Info("Stage frames: rendering scene images")
		paths, err := r.cfg.Frames.RenderScenes(gctx, scenes, p.Style, filepath.Join(runDir, "video_frames"))
		if err != nil {
			errChan <- NewAPIError("frame_rendering", "scene rendering failed", err)
			cancel()
			return
		}
		out, err := r.cfg.Media.BuildSlideshow(gctx, scenes, paths, runDir)
		if err != nil {
			errChan <- NewEncodingError("slideshow", "slideshow assembly failed", err)
			cancel()
			return
		}
		frames = paths
		slideshow = out
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		r.log.Info("Stage voice: synthesizing narration")
		paths, err := r.cfg.Voice.SynthesizeScenes(gctx, scenes, runDir)
		if err != nil {
			errChan <- NewAPIError("voice_synthesis", "voice synthesis failed", err)
			cancel()
			return
		}
		out, err := r.cfg.Media.ConcatAudio(gctx, paths, runDir)
		if err != nil {
			errChan <- NewEncodingError("voice_track", "voice track assembly failed", err)
			cancel()
			return
		}
		clips = paths
		voice = out
	}()

	wg.Wait()
	close(errChan)
	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}
	res.FrameCount = len(frames)
	res.ClipCount = len(clips)

	r.log.Info("Stage merge: combining audio and video")
	videoPath, err := r.cfg.Media.Merge(ctx, slideshow, voice, runDir)
	if err != nil {
		return nil, NewEncodingError("merge", "failed to merge audio and video", err)
	}
	res.VideoPath = videoPath

	uploadPath := videoPath
	if r.cfg.Subtitles {
		srt, err := r.cfg.Media.WriteSubtitles(scenes, runDir)
		if err != nil {
			return nil, NewEncodingError("subtitles", "failed to write subtitles", err)
		}
		subbed, err := r.cfg.Media.AddSubtitles(ctx, videoPath, srt)
		if err != nil {
			return nil, NewEncodingError("subtitles", "failed to burn in subtitles", err)
		}
		uploadPath = subbed
	}

	if r.cfg.SkipUpload {
		r.log.Info("Stage upload: skipped")
	} else {
		r.log.Info("Stage upload: sending video")
		meta := youtube.BuildMetadata(p.Topic, scriptRes.Script)
		url, err := r.cfg.Uploader.Upload(ctx, uploadPath, meta)
		if err != nil {
			return nil, NewAPIError("video_upload", "video upload failed", err)
		}
		res.VideoURL = url
	}

	if r.cfg.Publisher != nil {
		r.log.Info("Stage publish: storing run artifacts")
		kept := []string{videoPath, scriptRes.ScriptPath, scriptRes.MetadataPath}
		if uploadPath != videoPath {
			kept = append(kept, uploadPath)
		}
		runName := strings.ReplaceAll(p.Topic, " ", "_")
		artifactURL, err := r.cfg.Publisher.PublishRun(ctx, runName, kept)
		if err != nil {
			return nil, NewAPIError("artifact_publish", "artifact publication failed", err)
		}
		res.ArtifactURL = artifactURL
	} else {
		r.log.Info("Stage publish: no artifact bucket configured, skipping")
	}

	if r.cfg.Cleaner != nil {
		r.log.Info("Stage cleanup: removing intermediate files")
		if err := r.cfg.Cleaner(runDir); err != nil {
			r.log.Warn("Cleanup failed", slog.String("error", err.Error()))
		}
	}

	r.log.Info("Pipeline completed",
		slog.String("topic", p.Topic),
		slog.Int("scenes", res.SceneCount),
		slog.String("video", res.VideoPath),
		slog.String("video_url", res.VideoURL),
		slog.String("elapsed", r.cfg.Clock.Since(start).Round(time.Second).String()))

	return res, nil
}

// sendNotification reports the run outcome. It runs even when the run
// context was cancelled so operators still hear about aborted runs.
func (r *Runner) sendNotification(ctx context.Context, res *Result, runErr error) {
	if r.cfg.Notifier == nil {
		return
	}
	r.cfg.Notifier.Notify(context.WithoutCancel(ctx), notify.RunReport{
		Topic:       res.Topic,
		Succeeded:   runErr == nil,
		Duration:    res.Elapsed,
		VideoURL:    res.VideoURL,
		ArtifactURL: res.ArtifactURL,
		Err:         runErr,
	})
}
